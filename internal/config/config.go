// Package config holds the odyssey pipeline configuration: where journeys
// live, how generated tests are rendered and verified, the healing policy,
// and scoring thresholds. A YAML file overrides defaults section by
// section; a missing file just means defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"odyssey/internal/browser"
	"odyssey/internal/confidence"
	"odyssey/internal/healing"
	"odyssey/internal/render"
)

// Config is the root configuration.
type Config struct {
	Journeys   JourneysConfig   `yaml:"journeys"`
	Render     render.Options   `yaml:"render"`
	Runner     RunnerConfig     `yaml:"runner"`
	Healing    healing.Config   `yaml:"healing"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Browser    browser.Config   `yaml:"browser"`
	Store      StoreConfig      `yaml:"store"`
	Watch      WatchConfig      `yaml:"watch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// JourneysConfig locates the journey markdown files.
type JourneysConfig struct {
	Dir  string `yaml:"dir"`
	Glob string `yaml:"glob"`
	// OutDir receives generated test files.
	OutDir string `yaml:"out_dir"`
}

// RunnerConfig configures verification runs.
type RunnerConfig struct {
	GoBinary  string `yaml:"go_binary"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Parallel bounds concurrent healing loops.
	Parallel int `yaml:"parallel"`
}

// ConfidenceConfig is the YAML shape of the scorer options.
type ConfidenceConfig struct {
	Weights struct {
		Syntax    float64 `yaml:"syntax"`
		Pattern   float64 `yaml:"pattern"`
		Selector  float64 `yaml:"selector"`
		Agreement float64 `yaml:"agreement"`
	} `yaml:"weights"`
	OverallThreshold float64 `yaml:"overall_threshold"`
	BlockOnAnyBelow  float64 `yaml:"block_on_any_below"`
	SyntaxFloor      float64 `yaml:"syntax_floor"`
}

// Options converts the YAML shape into scorer options.
func (c ConfidenceConfig) Options() confidence.Options {
	return confidence.Options{
		Weights: map[confidence.Dimension]float64{
			confidence.DimensionSyntax:    c.Weights.Syntax,
			confidence.DimensionPattern:   c.Weights.Pattern,
			confidence.DimensionSelector:  c.Weights.Selector,
			confidence.DimensionAgreement: c.Weights.Agreement,
		},
		OverallThreshold: c.OverallThreshold,
		BlockOnAnyBelow:  c.BlockOnAnyBelow,
		SyntaxFloor:      c.SyntaxFloor,
	}
}

// StoreConfig locates the SQLite attempt log.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// LoggingConfig configures the categorized file logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`
	Debug bool   `yaml:"debug"`
}

// DefaultConfig returns the defaults every section falls back to.
func DefaultConfig() *Config {
	opts := confidence.DefaultOptions()
	cfg := &Config{
		Journeys: JourneysConfig{
			Dir:    "docs/journeys",
			Glob:   "*.md",
			OutDir: "journeys",
		},
		Render: render.DefaultOptions(),
		Runner: RunnerConfig{
			GoBinary:  "go",
			TimeoutMs: 300000,
			Parallel:  4,
		},
		Healing: healing.DefaultConfig(),
		Browser: browser.DefaultConfig(),
		Store:   StoreConfig{Dir: ".odyssey"},
		Watch:   WatchConfig{DebounceMs: 400},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   ".odyssey/logs",
		},
	}
	cfg.Confidence.Weights.Syntax = opts.Weights[confidence.DimensionSyntax]
	cfg.Confidence.Weights.Pattern = opts.Weights[confidence.DimensionPattern]
	cfg.Confidence.Weights.Selector = opts.Weights[confidence.DimensionSelector]
	cfg.Confidence.Weights.Agreement = opts.Weights[confidence.DimensionAgreement]
	cfg.Confidence.OverallThreshold = opts.OverallThreshold
	cfg.Confidence.BlockOnAnyBelow = opts.BlockOnAnyBelow
	cfg.Confidence.SyntaxFloor = opts.SyntaxFloor
	return cfg
}

// Load reads a YAML config, layering it over defaults. A missing file
// returns defaults; a malformed or invalid one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies environment overrides.
func (c *Config) applyEnv() {
	if url := os.Getenv("ODYSSEY_BROWSER_URL"); url != "" {
		c.Browser.DebuggerURL = url
	}
	if os.Getenv("ODYSSEY_DEBUG") == "1" {
		c.Logging.Debug = true
		c.Logging.Level = "debug"
	}
}

// Validate rejects configurations the pipeline cannot run with. The
// healing section's own validation is what keeps forbidden fixes out even
// when a config file tries to smuggle one in.
func (c *Config) Validate() error {
	if err := c.Healing.Validate(); err != nil {
		return fmt.Errorf("healing: %w", err)
	}
	for name, v := range map[string]float64{
		"confidence.overallThreshold": c.Confidence.OverallThreshold,
		"confidence.blockOnAnyBelow":  c.Confidence.BlockOnAnyBelow,
		"confidence.syntaxFloor":      c.Confidence.SyntaxFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	w := c.Confidence.Weights
	if w.Syntax+w.Pattern+w.Selector+w.Agreement <= 0 {
		return fmt.Errorf("confidence weights must sum to a positive value")
	}
	if c.Runner.Parallel < 1 {
		return fmt.Errorf("runner.parallel must be at least 1, got %d", c.Runner.Parallel)
	}
	if c.Journeys.Dir == "" {
		return fmt.Errorf("journeys.dir must be set")
	}
	return nil
}
