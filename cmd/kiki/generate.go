package main

import (
	"context"
	"fmt"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a new question",
		Long:  `Generate a new question in the style of stored questions about the given topic.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeGenerateRunner(a),
	}

	addSectionFlag(cmd)
	cmd.Flags().String("provider", "", "Provider name (defaults to configured default)")
	cmd.Flags().String("save", "", "Save the question to the library under this id")
	cmd.Flags().Bool("stream", false, "Print the model output as it arrives")
	return cmd
}

func makeGenerateRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		topic := args[0]
		scopeHint, _ := cmd.Flags().GetString("scope")
		asJSON, _ := cmd.Flags().GetBool("json")
		providerName, _ := cmd.Flags().GetString("provider")
		saveID, _ := cmd.Flags().GetString("save")
		stream, _ := cmd.Flags().GetBool("stream")

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

		provider, err := a.newProvider(cmd.Context(), cfg, providerName)
		if err != nil {
			return err
		}

		gen := internal.NewQuestionGenerator(store, provider, internal.DefaultSampling)

		var question internal.Question
		if stream && !asJSON {
			question, err = gen.GenerateSimilarStream(cmd.Context(), section, topic, cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout())
		} else {
			question, err = gen.GenerateSimilar(cmd.Context(), section, topic)
		}
		if err != nil {
			return fmt.Errorf("generate question: %w", err)
		}

		if saveID != "" {
			if err := saveToLibrary(cmd.Context(), scope, saveID, section, question, topic); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved as %s\n", saveID)
		}

		if asJSON {
			return outputJSON(cmd, questionJSON(section, question))
		}

		// Streaming already echoed the question text.
		if !stream {
			fmt.Fprint(cmd.OutOrStdout(), internal.FormatQuestion(question))
		}
		return nil
	}
}

func saveToLibrary(ctx context.Context, scope internal.Scope, id string, section internal.Section, q internal.Question, topic string) error {
	library, err := internal.OpenLibrary(scope.LibraryPath())
	if err != nil {
		return err
	}

	if err := library.Save(ctx, id, section, q); err != nil {
		return fmt.Errorf("save to library: %w", err)
	}
	if _, err := library.Commit(ctx, fmt.Sprintf("add %s: generated about %s", id, topic)); err != nil {
		return fmt.Errorf("commit library: %w", err)
	}
	return nil
}
