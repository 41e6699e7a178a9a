package main

import (
	"fmt"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find similar questions",
		Long:  `Search a section's questions by semantic similarity. Results are ordered by ascending distance.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeSearchRunner(a),
	}

	addSectionFlag(cmd)
	cmd.Flags().IntP("number", "n", 5, "Maximum results")
	return cmd
}

func makeSearchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		query := args[0]
		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("number")

		section, err := sectionFromFlag(cmd)
		if err != nil {
			return err
		}

		scope, cfg, err := a.scopeConfig(scopeHint)
		if err != nil {
			return err
		}

		store, err := a.openStore(scope, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		hits, err := store.SearchSimilar(cmd.Context(), section, query, limit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if asJSON {
			return outputHitsJSON(cmd, hits)
		}

		for _, h := range hits {
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s\n", h.Distance, h.ID)
		}
		return nil
	}
}

func outputHitsJSON(cmd *cobra.Command, hits []internal.SearchHit) error {
	out := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		entry := questionJSON(h.Section, h.Question)
		entry["id"] = h.ID
		entry["distance"] = h.Distance
		out = append(out, entry)
	}
	return outputJSON(cmd, out)
}
