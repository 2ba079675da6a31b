package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"odyssey/internal/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile journeys as they change",
	Long: `Watches the journey directory and recompiles any journey file that is
created or modified. Rapid bursts of events for the same file, which
editors produce on every save, collapse into one compile.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger(logging.CategoryWatch)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.Journeys.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.Journeys.Dir, err)
	}
	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	fmt.Println(titleStyle.Render("watching ") + cfg.Journeys.Dir)

	// Pending paths accumulate until the timer fires; the timer resets on
	// every new event so a burst of saves compiles once.
	pending := map[string]struct{}{}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if match, _ := filepath.Match(cfg.Journeys.Glob, filepath.Base(ev.Name)); !match {
				continue
			}
			log.Debug("journey changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			pending[ev.Name] = struct{}{}
			resetDebounce(timer, debounce)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(werr))

		case <-timer.C:
			compileLog := logger(logging.CategoryCompile)
			for path := range pending {
				fmt.Println(titleStyle.Render("recompiling ") + filepath.Base(path))
				if cerr := compileOne(path, compileLog); cerr != nil {
					fmt.Println(failStyle.Render("✗ ") + filepath.Base(path) + ": " + cerr.Error())
				}
			}
			pending = map[string]struct{}{}
		}
	}
}

// resetDebounce restarts the timer, draining a tick that already fired but
// was never consumed so the reset window is not cut short by a stale tick.
func resetDebounce(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
