package main

import (
	"fmt"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a question",
		Long:  `Retrieve a stored question by its id, e.g. lesson1_2_0.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeGetRunner(a),
	}

	addSectionFlag(cmd)
	return cmd
}

func makeGetRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]
		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")

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

		sq, err := store.GetByID(cmd.Context(), section, id)
		if err != nil {
			return fmt.Errorf("get question: %w", err)
		}

		if asJSON {
			entry := questionJSON(sq.Section, sq.Question)
			entry["id"] = sq.ID
			entry["source_id"] = sq.SourceID
			return outputJSON(cmd, entry)
		}

		fmt.Fprint(cmd.OutOrStdout(), internal.FormatQuestion(sq.Question))
		return nil
	}
}
