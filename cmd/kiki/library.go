package main

import (
	"fmt"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewLibraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage saved questions",
		Long:  `List, inspect and diff the git-versioned library of saved questions.`,
	}

	cmd.AddCommand(
		newLibraryListCmd(a),
		newLibraryGetCmd(a),
		newLibraryRemoveCmd(a),
		newLibraryLogCmd(a),
		newLibraryDiffCmd(a),
	)

	return cmd
}

func (a *app) openLibrary(scopeHint string) (*internal.Library, error) {
	scope := a.resolver.Resolve(scopeHint)
	return internal.OpenLibrary(scope.LibraryPath())
}

func newLibraryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved questions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			asJSON, _ := cmd.Flags().GetBool("json")

			library, err := a.openLibrary(scopeHint)
			if err != nil {
				return err
			}

			ids, err := library.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list library: %w", err)
			}

			if asJSON {
				return outputJSON(cmd, ids)
			}

			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newLibraryGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a saved question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			asJSON, _ := cmd.Flags().GetBool("json")

			library, err := a.openLibrary(scopeHint)
			if err != nil {
				return err
			}

			q, section, err := library.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get saved question: %w", err)
			}

			if asJSON {
				return outputJSON(cmd, questionJSON(section, q))
			}

			fmt.Fprint(cmd.OutOrStdout(), internal.FormatQuestion(q))
			return nil
		},
	}
}

func newLibraryRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a saved question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")

			library, err := a.openLibrary(scopeHint)
			if err != nil {
				return err
			}

			if err := library.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove saved question: %w", err)
			}
			if _, err := library.Commit(cmd.Context(), fmt.Sprintf("remove %s", args[0])); err != nil {
				return fmt.Errorf("commit library: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newLibraryLogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show library history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			asJSON, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("number")

			library, err := a.openLibrary(scopeHint)
			if err != nil {
				return err
			}

			commits, err := library.Log(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("library log: %w", err)
			}

			if asJSON {
				return outputJSON(cmd, commits)
			}

			for _, c := range commits {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
					c.Hash[:7], c.Timestamp.Format("2006-01-02 15:04"), c.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 20, "Maximum commits")
	return cmd
}

func newLibraryDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [ref]",
		Short: "Diff saved questions against a revision",
		Long:  `Show changes between the given revision and HEAD. Without a ref, diffs HEAD against the worktree.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")

			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}

			library, err := a.openLibrary(scopeHint)
			if err != nil {
				return err
			}

			diff, err := library.Diff(cmd.Context(), ref)
			if err != nil {
				return fmt.Errorf("library diff: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), diff)
			return nil
		},
	}
}
