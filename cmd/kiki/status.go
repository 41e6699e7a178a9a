package main

import (
	"fmt"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store status",
		Long:  `Show the resolved scope, embedding backend and per-section question counts.`,
		RunE:  makeStatusRunner(a),
	}
}

func makeStatusRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")

		scope, cfg, err := a.scopeConfig(scopeHint)
		if err != nil {
			return err
		}

		store, err := a.openStore(scope, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("store stats: %w", err)
		}

		if asJSON {
			counts := make(map[string]int, len(stats))
			for section, n := range stats {
				counts[section.Partition()] = n
			}
			return outputJSON(cmd, map[string]any{
				"scope":    string(scope.Type),
				"path":     scope.KikiPath,
				"backend":  cfg.Embeddings.Backend,
				"model":    cfg.Embeddings.Model,
				"sections": counts,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Scope:   %s (%s)\n", scope.Type, scope.KikiPath)
		fmt.Fprintf(out, "Backend: %s (%s, dim %d)\n",
			cfg.Embeddings.Backend, cfg.Embeddings.Model, cfg.Embeddings.Dimension)
		for _, section := range []internal.Section{internal.Section2, internal.Section3} {
			fmt.Fprintf(out, "%s: %d questions\n", section.Partition(), stats[section])
		}
		return nil
	}
}
