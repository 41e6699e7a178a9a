package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// QuestionGenerator produces new listening-comprehension questions in the
// style of stored ones and grades answers against them. It never returns a
// model's raw text to callers; everything is parsed into domain types.
type QuestionGenerator struct {
	store    *QuestionStore
	provider Provider
	params   SamplingParams
}

func NewQuestionGenerator(store *QuestionStore, provider Provider, params SamplingParams) *QuestionGenerator {
	return &QuestionGenerator{
		store:    store,
		provider: provider,
		params:   params.orDefault(),
	}
}

// fewShotContext is how many stored questions seed a generation prompt.
const fewShotContext = 3

// GenerateSimilar creates a new question about topic, seeded with the most
// similar stored questions from the section's partition. An empty partition
// yields ErrNotFound; a provider failure yields ErrProviderUnavailable.
func (g *QuestionGenerator) GenerateSimilar(ctx context.Context, section Section, topic string) (Question, error) {
	prompt, err := g.generationPrompt(ctx, section, topic)
	if err != nil {
		return nil, err
	}

	text, err := g.provider.Complete(ctx, prompt, g.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	question, err := ParseGeneratedQuestion(text, section)
	if err != nil {
		return nil, err
	}
	return question, nil
}

// GenerateSimilarStream is GenerateSimilar with the model's raw text relayed
// to sink as it arrives. The accumulated text is parsed once the stream
// closes.
func (g *QuestionGenerator) GenerateSimilarStream(ctx context.Context, section Section, topic string, sink io.Writer) (Question, error) {
	prompt, err := g.generationPrompt(ctx, section, topic)
	if err != nil {
		return nil, err
	}

	chunks, err := g.provider.Stream(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	var text strings.Builder
	for chunk := range chunks {
		text.WriteString(chunk)
		if _, err := io.WriteString(sink, chunk); err != nil {
			return nil, fmt.Errorf("write stream: %w", err)
		}
	}

	question, err := ParseGeneratedQuestion(text.String(), section)
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (g *QuestionGenerator) generationPrompt(ctx context.Context, section Section, topic string) (string, error) {
	hits, err := g.store.SearchSimilar(ctx, section, topic, fewShotContext)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", fmt.Errorf("no stored questions for %s: %w", section.Partition(), ErrNotFound)
	}

	var examples strings.Builder
	examples.WriteString("Here are some example JLPT listening questions:\n\n")
	for i, hit := range hits {
		fmt.Fprintf(&examples, "Example %d:\n", i+1)
		examples.WriteString(FormatQuestion(hit.Question))
		examples.WriteString("\n")
	}

	return fmt.Sprintf(`Based on the following example JLPT listening questions, create a new question about %s.
The question should follow the same format but be different from the examples.
Make sure the question tests listening comprehension and has a clear correct answer.

%s
Generate a new question following the exact same format as above. Include all components (Introduction/Situation,
Conversation/Question, and Options). Make sure the question is challenging but fair, and the options are plausible
but with only one clearly correct answer. Return ONLY the question without any additional text.`, topic, examples.String()), nil
}

// Feedback grades a selected answer (1-4) against the question. Responses
// that cannot be decoded even after JSON repair degrade to a stock wrong
// answer rather than an error.
func (g *QuestionGenerator) Feedback(ctx context.Context, question Question, selected int) (*Feedback, error) {
	if question == nil {
		return nil, fmt.Errorf("feedback: nil question")
	}
	if selected < 1 || selected > 4 {
		return nil, fmt.Errorf("feedback: selected answer %d out of range", selected)
	}

	var prompt strings.Builder
	prompt.WriteString("Given this JLPT listening question and the selected answer, provide feedback explaining if it's correct\nand why. Keep the explanation clear and concise.\n\n")
	prompt.WriteString(FormatQuestion(question))
	fmt.Fprintf(&prompt, "\nSelected Answer: %d\n", selected)
	prompt.WriteString("\nProvide feedback in JSON format with these fields:\n")
	prompt.WriteString("- correct: true/false\n")
	prompt.WriteString("- explanation: brief explanation of why the answer is correct/incorrect\n")
	prompt.WriteString("- correct_answer: the number of the correct option (1-4)\n")

	// Providers with native structured output deliver the feedback object
	// directly; the free-text path below covers the rest.
	var fb Feedback
	if err := g.provider.GenerateObject(ctx, prompt.String(), &fb); err == nil {
		return vetFeedback(&fb), nil
	}

	text, err := g.provider.Complete(ctx, prompt.String(), g.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := unmarshalRepaired([]byte(strings.TrimSpace(text)), &fb); err != nil {
		slog.Warn("feedback response undecodable, using default", "error", err)
		return DefaultFeedback(), nil
	}
	return vetFeedback(&fb), nil
}

func vetFeedback(fb *Feedback) *Feedback {
	if fb.CorrectAnswer < 1 || fb.CorrectAnswer > 4 {
		slog.Warn("feedback names an out-of-range option, using default",
			"correct_answer", fb.CorrectAnswer)
		return DefaultFeedback()
	}
	return fb
}

// FormatQuestion renders a question in the labeled flat-text form used by
// both the question files and the generation prompts.
func FormatQuestion(q Question) string {
	var b strings.Builder
	switch v := q.(type) {
	case Section2Question:
		fmt.Fprintf(&b, "Introduction: %s\n", v.Introduction)
		fmt.Fprintf(&b, "Conversation: %s\n", v.Conversation)
		fmt.Fprintf(&b, "Question: %s\n", v.Question)
	case Section3Question:
		fmt.Fprintf(&b, "Situation: %s\n", v.Situation)
		fmt.Fprintf(&b, "Question: %s\n", v.Question)
	}
	b.WriteString("Options:\n")
	for i, opt := range q.AnswerOptions() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	return b.String()
}

// unmarshalRepaired unmarshals JSON, attempting a repair pass when the
// payload is syntactically broken. Model output routinely needs this.
func unmarshalRepaired(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
