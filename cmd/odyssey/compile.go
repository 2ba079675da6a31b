package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"odyssey/internal/journey"
	"odyssey/internal/logging"
	"odyssey/internal/normalize"
	"odyssey/internal/patterns"
	"odyssey/internal/render"
)

var compileStrict bool

var compileCmd = &cobra.Command{
	Use:   "compile [journey.md ...]",
	Short: "Compile journey files into Go browser tests",
	Long: `Parses each journey's front matter and acceptance criteria, maps every
step onto automation primitives, and renders a Go test file into the
configured output directory. Steps no pattern recognizes become explicit
blocked markers, with a hint suggestion when one can be inferred.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().BoolVar(&compileStrict, "strict", false, "drop blocked steps instead of emitting skip markers")
}

func runCompile(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join(cfg.Journeys.Dir, cfg.Journeys.Glob))
		if err != nil {
			return fmt.Errorf("glob journeys: %w", err)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no journey files under %s", cfg.Journeys.Dir)
	}
	if err := os.MkdirAll(cfg.Journeys.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	log := logger(logging.CategoryCompile)
	failed := 0
	for _, f := range files {
		if err := compileOne(f, log); err != nil {
			failed++
			fmt.Println(failStyle.Render("✗ ") + f + ": " + err.Error())
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d journey(s) failed to compile", failed, len(files))
	}
	return nil
}

func compileOne(path string, log *zap.Logger) error {
	parsed, err := journey.Load(path)
	if err != nil {
		return err
	}

	opts := normalize.DefaultOptions()
	opts.Strict = compileStrict
	res := normalize.Normalize(parsed, opts)

	for _, w := range res.Warnings {
		fmt.Println(warnStyle.Render("  ~ ") + w)
	}

	validation := normalize.ValidateForCodeGen(res)
	for _, v := range validation.Errors {
		fmt.Println(warnStyle.Render("  ! ") + v.Message)
		log.Warn("validation", zap.String("journey", res.Journey.ID), zap.String("code", v.Code))
	}
	if !validation.Valid {
		return fmt.Errorf("journey fails code generation gates")
	}

	src, err := render.Render(res.Journey, cfg.Render)
	if err != nil {
		return err
	}
	out := filepath.Join(cfg.Journeys.OutDir, testFileName(path))
	if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("%s %s → %s (%d steps, %d assertions)\n",
		okStyle.Render("✓"), path, out, len(res.Journey.Steps), res.Journey.AssertionCount())
	log.Info("compiled",
		zap.String("journey", res.Journey.ID),
		zap.String("out", out),
		zap.Int("mapped", res.Stats.MappedSteps),
		zap.Int("blocked", res.Stats.BlockedSteps))

	for _, b := range res.BlockedSteps {
		fmt.Println(warnStyle.Render("  blocked: ") + b.SourceText)
		if s := patterns.SuggestFix(b.SourceText); s != nil {
			fmt.Printf("    try (confidence %.2f): %s\n", s.Confidence, s.FixedText)
		}
	}
	return nil
}

// testFileName maps docs/journeys/checkout.md to checkout_test.go.
func testFileName(journeyPath string) string {
	base := strings.TrimSuffix(filepath.Base(journeyPath), filepath.Ext(journeyPath))
	base = strings.ReplaceAll(base, "-", "_")
	return base + "_test.go"
}
