package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"odyssey/internal/browser"
	"odyssey/internal/logging"
)

var probeSelector string

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Mine a live page for stable locator candidates",
	Long: `Opens the page in a browser session, snapshots its DOM, and prints
ranked locator candidates. With --selector, candidates are mined around
the element that selector resolves to, which is the starting point for
a selector-refine fix.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeSelector, "selector", "", "failing CSS selector to mine candidates for")
}

func runProbe(cmd *cobra.Command, args []string) error {
	log := logger(logging.CategoryBrowser)
	mgr := browser.NewManager(cfg.Browser, log)
	defer mgr.Shutdown()

	candidates, err := mgr.Probe(cmd.Context(), args[0], probeSelector)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println(warnStyle.Render("no locator candidates found"))
		return nil
	}
	log.Info("probed", zap.String("url", args[0]), zap.Int("candidates", len(candidates)))

	fmt.Println(titleStyle.Render("Locator candidates (most stable first)"))
	for i, c := range candidates {
		line := fmt.Sprintf("%2d. %-12s %q", i+1, c.Locator.Strategy, c.Locator.Value)
		if name := c.Locator.Option("name"); name != "" {
			line += fmt.Sprintf(" (name %q)", name)
		}
		fmt.Println(line + "  " + c.Source)
	}
	return nil
}
