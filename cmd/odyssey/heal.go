package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"odyssey/internal/healing"
	"odyssey/internal/logging"
	"odyssey/internal/report"
	"odyssey/internal/runner"
	"odyssey/internal/store"
)

var healCmd = &cobra.Command{
	Use:   "heal [test-file ...]",
	Short: "Run failing journey tests through the healing loop",
	Long: `Verifies each test file, classifies any failure, and applies safe
fixes until the test passes or the attempt budget runs out. Loops for
different files run concurrently; every attempt is recorded in the
attempt log for the report command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHeal,
}

// fileStore adapts one on-disk test file to the loop's source interface.
type fileStore struct{ path string }

func (f fileStore) Read() (string, error) {
	b, err := os.ReadFile(f.path)
	return string(b), err
}

func (f fileStore) Write(src string) error {
	return os.WriteFile(f.path, []byte(src), 0o644)
}

func runHeal(cmd *cobra.Command, args []string) error {
	log := logger(logging.CategoryHeal)
	run := runner.New(cfg.Journeys.OutDir)
	run.GoBinary = cfg.Runner.GoBinary
	run.Timeout = time.Duration(cfg.Runner.TimeoutMs) * time.Millisecond
	run.Logger = log

	var reqs []healing.LoopRequest
	for _, f := range args {
		reqs = append(reqs, healing.LoopRequest{
			TestFile: f,
			Config:   cfg.Healing,
			Verify:   run.VerifyFunc(testFuncFromFile(f)),
			Source:   fileStore{path: filepath.Join(cfg.Journeys.OutDir, filepath.Base(f))},
			Logger:   log,
		})
	}

	results, err := healing.RunLoops(cmd.Context(), reqs, cfg.Runner.Parallel)
	if err != nil {
		return err
	}

	if db, derr := store.New(cfg.Store.Dir); derr == nil {
		defer db.Close()
		for _, r := range results {
			if serr := db.RecordLoop(r); serr != nil {
				log.Warn("attempt log write failed", zap.Error(serr))
			}
		}
	}

	printMarkdown(report.Healing(results))
	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("not every test healed")
		}
	}
	return nil
}

// testFuncFromFile maps checkout_test.go onto its generated test function
// prefix; an empty result runs the whole package.
func testFuncFromFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), "_test.go")
	if base == filepath.Base(path) {
		return ""
	}
	parts := strings.Split(base, "_")
	var b strings.Builder
	b.WriteString("Test")
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String() + ".*"
}
