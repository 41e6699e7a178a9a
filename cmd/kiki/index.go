package main

import (
	"fmt"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file>...",
		Short: "Ingest question files",
		Long:  `Parse question files named {source}_section{2|3}.txt and index them for search.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeIndexRunner(a),
	}

	cmd.AddCommand(newIndexRebuildCmd(a))
	return cmd
}

func makeIndexRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")

		scope, cfg, err := a.scopeConfig(scopeHint)
		if err != nil {
			return err
		}

		store, err := a.openStore(scope, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		total := 0
		for _, path := range args {
			stored, err := store.IngestFromFile(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions\n", path, len(stored))
			total += len(stored)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d questions.\n", total)
		return nil
	}
}

func newIndexRebuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the search indexes",
		Long:  `Re-embed all stored questions and rebuild the per-section indexes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")

			scope, cfg, err := a.scopeConfig(scopeHint)
			if err != nil {
				return err
			}

			store, err := a.openStore(scope, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			for _, section := range []internal.Section{internal.Section2, internal.Section3} {
				n, err := store.Rebuild(cmd.Context(), section)
				if err != nil {
					return fmt.Errorf("rebuild %s: %w", section.Partition(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions reindexed\n", section.Partition(), n)
			}
			return nil
		},
	}
}
