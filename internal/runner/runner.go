// Package runner verifies generated journey tests by running them through
// the Go toolchain as a subprocess and translating `go test -json` output
// into the verification shape the healing loop consumes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"odyssey/internal/healing"
)

// Runner executes one journey-test package.
type Runner struct {
	GoBinary string        // defaults to "go"
	Dir      string        // package directory holding the generated tests
	Timeout  time.Duration // per-run cap, 0 means no extra bound beyond ctx
	Logger   *zap.Logger
}

// New returns a Runner for the package at dir.
func New(dir string) *Runner {
	return &Runner{GoBinary: "go", Dir: dir, Logger: zap.NewNop()}
}

// VerifyFunc adapts the runner to the healing loop for one test function.
func (r *Runner) VerifyFunc(testFunc string) healing.VerifyFunc {
	return func(ctx context.Context) (healing.VerifyResult, error) {
		return r.Run(ctx, testFunc)
	}
}

// Run executes `go test -run ^<testFunc>$ -json` in the runner's directory.
// A failing test is a normal result, not an error; errors are reserved for
// the runner itself breaking (missing toolchain, cancellation).
func (r *Runner) Run(ctx context.Context, testFunc string) (healing.VerifyResult, error) {
	bin := r.GoBinary
	if bin == "" {
		bin = "go"
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := []string{"test", "-count=1", "-json"}
	if testFunc != "" {
		args = append(args, "-run", "^"+testFunc+"$")
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("verification run", zap.String("dir", r.Dir), zap.Strings("args", args))
	runErr := cmd.Run()
	if ctx.Err() != nil {
		return healing.VerifyResult{}, ctx.Err()
	}

	outcome := Parse(stdout.Bytes())
	if runErr == nil && !outcome.Failed {
		return healing.VerifyResult{Status: healing.VerifyPassed}, nil
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		// Not a test failure exit; the toolchain itself could not run.
		return healing.VerifyResult{}, fmt.Errorf("run %s: %w", bin, runErr)
	}

	errs := outcome.Errors
	if len(errs) == 0 {
		// Build failures and malformed output land on stderr.
		msg := stderr.String()
		if msg == "" {
			msg = stdout.String()
		}
		errs = []string{msg}
	}
	return healing.VerifyResult{Status: healing.VerifyFailed, Errors: errs}, nil
}
