package main

import (
	"encoding/json"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func sectionFromFlag(cmd *cobra.Command) (internal.Section, error) {
	n, _ := cmd.Flags().GetInt("section")
	return internal.ParseSection(n)
}

func addSectionFlag(cmd *cobra.Command) {
	cmd.Flags().IntP("section", "s", 2, "Question section (2|3)")
}

func outputJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func questionJSON(section internal.Section, q internal.Question) map[string]any {
	data := map[string]any{
		"section": int(section),
		"options": q.AnswerOptions(),
	}
	switch v := q.(type) {
	case internal.Section2Question:
		data["introduction"] = v.Introduction
		data["conversation"] = v.Conversation
		data["question"] = v.Question
	case internal.Section3Question:
		data["situation"] = v.Situation
		data["question"] = v.Question
	}
	return data
}
