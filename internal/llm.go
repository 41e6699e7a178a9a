package internal

import "context"

// Embedder converts text into dense float32 vectors.
// EmbedBatch returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// SamplingParams are the completion sampling knobs passed on every call.
type SamplingParams struct {
	Temperature float64
	MaxTokens   int
}

// DefaultSampling is used when a caller passes the zero value.
var DefaultSampling = SamplingParams{
	Temperature: 0.7,
	MaxTokens:   2048,
}

func (p SamplingParams) orDefault() SamplingParams {
	if p.Temperature == 0 {
		p.Temperature = DefaultSampling.Temperature
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = DefaultSampling.MaxTokens
	}
	return p
}

// Provider is a chat completion backend.
type Provider interface {
	Complete(ctx context.Context, prompt string, params SamplingParams) (string, error)
	GenerateObject(ctx context.Context, prompt string, target any) error
	Stream(ctx context.Context, prompt string) (<-chan string, error)
}

// Structured model outputs.

// Feedback is the graded outcome for an answered listening question.
type Feedback struct {
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
	CorrectAnswer int    `json:"correct_answer"`
}

// DefaultFeedback is substituted when the model returns feedback that cannot
// be decoded even after repair.
func DefaultFeedback() *Feedback {
	return &Feedback{
		Correct:       false,
		Explanation:   "Unable to generate detailed feedback. Please try again.",
		CorrectAnswer: 1,
	}
}

// GradeReport is the review of a handwritten translation attempt.
type GradeReport struct {
	Grade       string   `json:"grade"` // S, A, B, C, D or F
	Explanation string   `json:"explanation"`
	Suggestions []string `json:"suggestions"`
}

// DefaultGradeReport is substituted when the model's review cannot be
// decoded even after repair.
func DefaultGradeReport() *GradeReport {
	return &GradeReport{
		Grade:       "C",
		Explanation: "Unable to properly assess due to a system error.",
		Suggestions: []string{"Please try again."},
	}
}
