package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch for question files and auto-ingest",
		Long:  `Watch the questions directory and automatically ingest changed question files.`,
		RunE:  makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	cmd.Flags().String("dir", "", "Directory to watch (defaults to <scope>/questions)")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		dir, _ := cmd.Flags().GetString("dir")

		scope, cfg, err := a.scopeConfig(scopeHint)
		if err != nil {
			return err
		}
		if dir == "" {
			dir = scope.QuestionsPath()
		}

		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("questions directory does not exist: %s", dir)
		}

		store, err := a.openStore(scope, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for question files...\n", dir)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := make(map[string]struct{})

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event) {
					continue
				}
				if len(pending) == 0 {
					timer.Reset(debounce)
				}
				pending[event.Name] = struct{}{}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				for path := range pending {
					delete(pending, path)

					stored, ingestErr := store.IngestFromFile(cmd.Context(), path)
					if ingestErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "ingest %s: %v\n", path, ingestErr)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions\n", path, len(stored))
				}
			}
		}
	}
}

// shouldIgnoreEvent drops events that are not writes or creates of question
// files.
func shouldIgnoreEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return true
	}
	if !strings.HasSuffix(event.Name, ".txt") {
		return true
	}
	return !strings.Contains(event.Name, "_section")
}
