package main

import (
	"fmt"
	"strconv"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewFeedbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback <id> <answer>",
		Short: "Grade an answer choice",
		Long:  `Grade the selected option (1-4) against a stored question.`,
		Args:  cobra.ExactArgs(2),
		RunE:  makeFeedbackRunner(a),
	}

	addSectionFlag(cmd)
	cmd.Flags().String("provider", "", "Provider name (defaults to configured default)")
	return cmd
}

func makeFeedbackRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]
		selected, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("answer must be a number 1-4: %w", err)
		}

		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")
		providerName, _ := cmd.Flags().GetString("provider")

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

		provider, err := a.newProvider(cmd.Context(), cfg, providerName)
		if err != nil {
			return err
		}

		gen := internal.NewQuestionGenerator(store, provider, internal.DefaultSampling)
		fb, err := gen.Feedback(cmd.Context(), sq.Question, selected)
		if err != nil {
			return fmt.Errorf("feedback: %w", err)
		}

		if asJSON {
			return outputJSON(cmd, fb)
		}

		if fb.Correct {
			fmt.Fprintln(cmd.OutOrStdout(), "Correct!")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Incorrect. The correct answer is %d.\n", fb.CorrectAnswer)
		}
		fmt.Fprintln(cmd.OutOrStdout(), fb.Explanation)
		return nil
	}
}
