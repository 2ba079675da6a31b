package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"odyssey/internal/confidence"
	"odyssey/internal/logging"
	"odyssey/internal/report"
)

var scoreCmd = &cobra.Command{
	Use:   "score <test-file> [candidate-file ...]",
	Short: "Score a generated test's shippability",
	Long: `Scores a generated test across syntax, dialect conformance, selector
stability, and (when alternative candidates are given) cross-candidate
agreement. The verdict gates what happens next: ACCEPT ships, REVIEW
needs eyes, REJECT goes back to generation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var candidates []string
	for _, f := range args[1:] {
		c, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		candidates = append(candidates, string(c))
	}

	s := confidence.Evaluate(string(code), confidence.Context{Candidates: candidates}, cfg.Confidence.Options())
	logger(logging.CategoryScore).Info("scored",
		zap.String("file", args[0]),
		zap.Float64("overall", s.Overall),
		zap.String("verdict", string(s.Verdict)))

	printMarkdown(report.Confidence(args[0], s))
	if s.Verdict == confidence.VerdictReject {
		return fmt.Errorf("confidence gate rejected %s", args[0])
	}
	return nil
}
