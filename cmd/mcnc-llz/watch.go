package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		configPath   string
		outputDir    string
		outputFormat string
		debounce     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize templates when the configuration changes",
		Long: `Watch monitors the configuration file and re-synthesizes both
stacks on every change, debouncing rapid edits.

Examples:
    mcnc-llz watch -c config.yaml
    mcnc-llz watch -c config.yaml --debounce 1s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(configPath, outputDir, outputFormat, debounce)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Deployment configuration file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "out", "Output directory for templates")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")

	return cmd
}

func runWatch(configPath, outputDir, format string, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Watch the directory: editors replace files on save, which drops
	// a watch registered on the file itself.
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	log.WithField("config", configPath).Info("watching for changes")
	runOnce(configPath, outputDir, format)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var timer *time.Timer
	timerCh := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				timerCh <- struct{}{}
			})

		case <-timerCh:
			log.WithField("config", configPath).Info("change detected")
			runOnce(configPath, outputDir, format)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("watch error")

		case <-sigCh:
			log.Info("stopping")
			return nil
		}
	}
}

// runOnce synthesizes and logs failures instead of aborting the watch
// loop.
func runOnce(configPath, outputDir, format string) {
	if err := runSynth(configPath, outputDir, format); err != nil {
		log.WithError(err).Error("synth failed")
	}
}
