// odyssey compiles markdown user journeys into runnable browser tests,
// classifies their failures, and heals the common breakages automatically.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"odyssey/internal/config"
	"odyssey/internal/logging"
)

var (
	configPath string
	debugMode  bool
	plainOut   bool

	cfg  *config.Config
	logs *logging.Registry
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var rootCmd = &cobra.Command{
	Use:   "odyssey",
	Short: "journey-test compiler and self-healing pipeline",
	Long: `odyssey turns markdown user journeys into Go browser tests and keeps
them alive: it classifies test failures into actionable categories and
applies a bounded set of safe fixes (better selectors, navigation waits,
data isolation, timeout tuning) until the test passes or a human is
needed. It never weakens an assertion and never papers over a failure
with a sleep.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if debugMode {
			cfg.Logging.Debug = true
			cfg.Logging.Level = "debug"
		}
		logs, err = logging.New(logging.Options{
			Dir:   cfg.Logging.Dir,
			Level: cfg.Logging.Level,
			Debug: cfg.Logging.Debug,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			logs.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "odyssey.yaml", "pipeline config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable categorized debug logs")
	rootCmd.PersistentFlags().BoolVar(&plainOut, "plain", false, "print reports as raw markdown")

	rootCmd.AddCommand(compileCmd, healCmd, classifyCmd, scoreCmd, reportCmd, watchCmd, probeCmd)
}

// printMarkdown renders a markdown report for the terminal, falling back to
// the raw text when rendering fails or --plain is set.
func printMarkdown(md string) {
	if !plainOut {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Print(out)
				return
			}
		}
	}
	fmt.Print(md)
}

func logger(c logging.Category) *zap.Logger {
	if logs == nil {
		return zap.NewNop()
	}
	return logs.Get(c)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
