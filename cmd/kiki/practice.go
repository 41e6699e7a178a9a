package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewPracticeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Handwriting practice",
		Long:  `Practice writing Japanese: get an English sentence, write it by hand, submit a photo for grading.`,
	}

	cmd.AddCommand(
		newPracticeStartCmd(a),
		newPracticeSubmitCmd(a),
		newPracticeShowCmd(a),
		newPracticeNextCmd(a),
	)

	return cmd
}

func (a *app) writingService(cmd *cobra.Command, cfg *internal.Config) (*internal.WritingService, error) {
	provider, err := a.newProvider(cmd.Context(), cfg, "")
	if err != nil {
		return nil, err
	}

	ocr := internal.NewOCRClient(cfg.Writing.OCRURL, http.DefaultClient)
	vocab := internal.NewVocabClient(cfg.Writing.VocabURL, http.DefaultClient)
	return internal.NewWritingService(provider, ocr, vocab, internal.DefaultSampling), nil
}

func startPractice(cmd *cobra.Command, a *app, session *internal.Session) error {
	scopeHint, _ := cmd.Flags().GetString("scope")
	word, _ := cmd.Flags().GetString("word")

	scope, cfg, err := a.scopeConfig(scopeHint)
	if err != nil {
		return err
	}

	svc, err := a.writingService(cmd, cfg)
	if err != nil {
		return err
	}

	if word == "" {
		words, err := svc.Vocabulary(cmd.Context())
		if err != nil || len(words) == 0 {
			word = "sushi"
		} else {
			word = words[rand.Intn(len(words))].English
		}
	}

	sentence := svc.GenerateSentence(cmd.Context(), word)
	if err := session.StartPractice(word, sentence); err != nil {
		return err
	}
	if err := session.Save(scope.SessionPath()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Write this sentence in Japanese:\n\n  %s\n", sentence)
	return nil
}

func newPracticeStartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a practice session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			scope := a.resolver.Resolve(scopeHint)

			session, err := internal.LoadSession(scope.SessionPath())
			if err != nil {
				return err
			}
			return startPractice(cmd, a, session)
		},
	}

	cmd.Flags().String("word", "", "Practice word (defaults to a random vocabulary word)")
	return cmd
}

func newPracticeSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <image>",
		Short: "Submit a handwritten attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			asJSON, _ := cmd.Flags().GetBool("json")

			scope, cfg, err := a.scopeConfig(scopeHint)
			if err != nil {
				return err
			}

			session, err := internal.LoadSession(scope.SessionPath())
			if err != nil {
				return err
			}
			if session.State != internal.StatePractice {
				return fmt.Errorf("no active practice sentence, run 'kiki practice start' first")
			}

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			svc, err := a.writingService(cmd, cfg)
			if err != nil {
				return err
			}

			review, err := svc.Submit(cmd.Context(), session.Sentence, image)
			if err != nil {
				return fmt.Errorf("review attempt: %w", err)
			}

			if err := session.CompleteReview(review); err != nil {
				return err
			}
			if err := session.Save(scope.SessionPath()); err != nil {
				return err
			}

			if asJSON {
				return outputJSON(cmd, review)
			}
			printReview(cmd, session.Sentence, review)
			return nil
		},
	}
}

func newPracticeShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			asJSON, _ := cmd.Flags().GetBool("json")

			scope := a.resolver.Resolve(scopeHint)
			session, err := internal.LoadSession(scope.SessionPath())
			if err != nil {
				return err
			}

			if asJSON {
				return outputJSON(cmd, session)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "State: %s\n", session.State)
			if session.Sentence != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Sentence: %s\n", session.Sentence)
			}
			if session.Review != nil {
				printReview(cmd, session.Sentence, session.Review)
			}
			return nil
		},
	}
}

func newPracticeNextCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Move on to a new sentence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			scope := a.resolver.Resolve(scopeHint)

			session, err := internal.LoadSession(scope.SessionPath())
			if err != nil {
				return err
			}
			if session.State != internal.StateReview {
				return fmt.Errorf("nothing to move on from, submit an attempt first")
			}
			return startPractice(cmd, a, session)
		},
	}

	cmd.Flags().String("word", "", "Practice word (defaults to a random vocabulary word)")
	return cmd
}

func printReview(cmd *cobra.Command, sentence string, review *internal.Review) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sentence:      %s\n", sentence)
	fmt.Fprintf(out, "Transcription: %s\n", review.Transcription)
	fmt.Fprintf(out, "Translation:   %s\n", review.Translation)
	fmt.Fprintf(out, "Grade:         %s\n", review.Report.Grade)
	fmt.Fprintln(out, review.Report.Explanation)
	for _, s := range review.Report.Suggestions {
		fmt.Fprintf(out, "  - %s\n", s)
	}
}
