package main

import (
	"github.com/spf13/cobra"

	"odyssey/internal/report"
	"odyssey/internal/store"
)

var reportLimit int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show recurring failures and fix effectiveness",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 10, "max recurring fingerprints to show")
}

func runReport(cmd *cobra.Command, args []string) error {
	db, err := store.New(cfg.Store.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	recurring, err := db.Recurring(reportLimit)
	if err != nil {
		return err
	}
	stats, err := db.StatsByFix()
	if err != nil {
		return err
	}
	printMarkdown(report.Stability(recurring, stats))
	return nil
}
