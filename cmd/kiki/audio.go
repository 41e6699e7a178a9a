package main

import (
	"fmt"
	"net/http"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewAudioCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio <id>",
		Short: "Synthesize conversation audio",
		Long:  `Render a stored question as spoken audio using a local VOICEVOX engine and ffmpeg.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeAudioRunner(a),
	}

	addSectionFlag(cmd)
	return cmd
}

func makeAudioRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]
		scopeHint, _ := cmd.Flags().GetString("scope")

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

		parts := internal.ConversationParts(sq.Question)
		if len(parts) == 0 {
			return fmt.Errorf("question %s has no spoken parts", id)
		}

		voicevox := internal.NewVoicevoxClient(cfg.Audio.VoicevoxURL, http.DefaultClient)
		gen := internal.NewAudioGenerator(voicevox, cfg.Audio.Voices, scope.AudioPath())

		output, err := gen.Generate(cmd.Context(), parts)
		if err != nil {
			return fmt.Errorf("generate audio: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), output)
		return nil
	}
}
