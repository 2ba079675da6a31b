// Package logging provides categorized file logging for the odyssey
// pipeline. Each category writes to its own file under the log directory
// (.odyssey/logs by default) so a healing session can be read end to end
// without grepping one interleaved stream. When debug mode is off the
// registry hands out no-op loggers and touches no files.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category is one pipeline subsystem's log stream.
type Category string

const (
	CategoryCompile  Category = "compile"  // journey parsing, matching, rendering
	CategoryMatch    Category = "match"    // pattern registry decisions
	CategoryClassify Category = "classify" // failure classification
	CategoryHeal     Category = "heal"     // healing loop state transitions
	CategoryScore    Category = "score"    // confidence scoring
	CategoryBrowser  Category = "browser"  // browser sessions and probes
	CategoryWatch    Category = "watch"    // watch mode events
	CategoryStore    Category = "store"    // attempt log persistence
)

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryCompile, CategoryMatch, CategoryClassify, CategoryHeal,
		CategoryScore, CategoryBrowser, CategoryWatch, CategoryStore,
	}
}

// Options configures a registry.
type Options struct {
	Dir   string // log directory, created on first use
	Level string // debug, info, warn, error
	Debug bool   // false disables file logging entirely
}

// Registry owns one zap logger per category.
type Registry struct {
	opts  Options
	level zapcore.Level

	mu      sync.Mutex
	loggers map[Category]*zap.Logger
}

// New builds a registry. Construction never touches the filesystem; files
// are opened lazily on first Get so a disabled run stays clean.
func New(opts Options) (*Registry, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
	}
	if opts.Dir == "" {
		opts.Dir = filepath.Join(".odyssey", "logs")
	}
	return &Registry{
		opts:    opts,
		level:   level,
		loggers: make(map[Category]*zap.Logger),
	}, nil
}

// Get returns the category's logger, opening its file on first use.
// Failures to open a log file degrade to a no-op logger; logging must
// never take the pipeline down.
func (r *Registry) Get(c Category) *zap.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lg, ok := r.loggers[c]; ok {
		return lg
	}
	if !r.opts.Debug {
		lg := zap.NewNop()
		r.loggers[c] = lg
		return lg
	}

	if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		r.loggers[c] = zap.NewNop()
		return r.loggers[c]
	}
	path := filepath.Join(r.opts.Dir, string(c)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		r.loggers[c] = zap.NewNop()
		return r.loggers[c]
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), r.level)
	lg := zap.New(core).With(zap.String("category", string(c)))
	r.loggers[c] = lg
	return lg
}

// Sync flushes every opened logger.
func (r *Registry) Sync() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lg := range r.loggers {
		_ = lg.Sync()
	}
}

// Enabled reports whether file logging is active.
func (r *Registry) Enabled() bool { return r.opts.Debug }
