package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"odyssey/internal/classify"
	"odyssey/internal/logging"
	"odyssey/internal/report"
	"odyssey/internal/runner"
	"odyssey/internal/store"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <run-output>",
	Short: "Classify test failures from a run's output",
	Long: `Reads a test run's output (a go test -json stream, or one raw error
message per blank-line separated block), classifies each failure into an
actionable category, and records the fingerprints so recurring failures
show up in the stability report.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	log := logger(logging.CategoryClassify)

	failures := map[string][]string{}
	if outcome := runner.Parse(data); outcome.Failed {
		for i, test := range outcome.FailedTests {
			if i < len(outcome.Errors) {
				failures[test] = append(failures[test], outcome.Errors[i])
			}
		}
	} else {
		// Raw text: blank-line separated error blocks.
		for _, block := range strings.Split(string(data), "\n\n") {
			block = strings.TrimSpace(block)
			if block != "" {
				failures["(raw)"] = append(failures["(raw)"], block)
			}
		}
	}
	if len(failures) == 0 {
		fmt.Println(okStyle.Render("no failures found"))
		return nil
	}

	results := classify.Batch(failures)
	for test, cs := range results {
		for _, c := range cs {
			log.Info("classified",
				zap.String("test", test),
				zap.String("category", string(c.Category)),
				zap.String("fingerprint", c.Fingerprint))
		}
	}

	if db, derr := store.New(cfg.Store.Dir); derr == nil {
		defer db.Close()
		for test, cs := range results {
			for _, c := range cs {
				if serr := db.RecordClassification(test, c); serr != nil {
					log.Warn("history write failed", zap.Error(serr))
				}
			}
		}
	}

	printMarkdown(report.Classification(results))
	return nil
}
