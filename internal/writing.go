package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// FallbackSentence is handed out when sentence generation fails. Practice
// should never be blocked by a provider outage.
const FallbackSentence = "I eat sushi."

// WritingService drives the handwriting practice flow: generate an English
// sentence, recognize the handwritten Japanese attempt, translate it back
// and grade the result.
type WritingService struct {
	provider Provider
	ocr      *OCRClient
	vocab    *VocabClient
	params   SamplingParams
}

func NewWritingService(provider Provider, ocr *OCRClient, vocab *VocabClient, params SamplingParams) *WritingService {
	return &WritingService{
		provider: provider,
		ocr:      ocr,
		vocab:    vocab,
		params:   params.orDefault(),
	}
}

// Vocabulary returns the practice word list from the portal.
func (s *WritingService) Vocabulary(ctx context.Context) ([]Word, error) {
	return s.vocab.Words(ctx)
}

// GenerateSentence produces a simple English sentence using the given word,
// scoped to beginner grammar. Provider failures degrade to a fixed fallback
// sentence so a session can always start.
func (s *WritingService) GenerateSentence(ctx context.Context, word string) string {
	prompt := fmt.Sprintf(`Generate a simple sentence using the following word: %s
The grammar should be scoped to JLPT N5 grammar.
You can use the following vocabulary to construct a simple sentence:
- simple objects e.g. book, car, ramen, sushi
- simple verbs, to drink, to eat, to meet
- simple times e.g. tomorrow, today, yesterday

Return only the English sentence.`, word)

	text, err := s.provider.Complete(ctx, prompt, s.params)
	if err != nil {
		slog.Warn("sentence generation failed, using fallback", "word", word, "error", err)
		return FallbackSentence
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackSentence
	}
	return text
}

// Transcribe recognizes the handwritten Japanese text in the image.
func (s *WritingService) Transcribe(ctx context.Context, image []byte) (string, error) {
	text, err := s.ocr.Recognize(ctx, image)
	if err != nil {
		return "", fmt.Errorf("transcribe image: %w", err)
	}
	return text, nil
}

// Translate renders Japanese text into literal English.
func (s *WritingService) Translate(ctx context.Context, japanese string) (string, error) {
	prompt := fmt.Sprintf("Translate the following Japanese text to English literally: %s", japanese)

	text, err := s.provider.Complete(ctx, prompt, s.params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

// Grade scores a practice attempt on the S to F scale. Responses that
// cannot be decoded even after JSON repair degrade to a stock C grade.
func (s *WritingService) Grade(ctx context.Context, english, japanese, translation string) (*GradeReport, error) {
	prompt := fmt.Sprintf(`Grade this Japanese language practice attempt:

Original English sentence: %q
User's Japanese writing (transcribed): %q
Literal translation of user's writing: %q

Provide:
1. A letter grade using S, A, B, C, D, F ranking
2. A brief explanation of whether the attempt accurately conveyed the English sentence
3. 1-2 specific suggestions for improvement

Format your response as a JSON object with keys: "grade", "explanation", "suggestions"`,
		english, japanese, translation)

	// Structured output skips the JSON repair dance when the provider
	// supports it.
	var report GradeReport
	if err := s.provider.GenerateObject(ctx, prompt, &report); err == nil {
		if report.Grade == "" {
			return DefaultGradeReport(), nil
		}
		return &report, nil
	}

	text, err := s.provider.Complete(ctx, prompt, s.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := unmarshalRepaired([]byte(strings.TrimSpace(text)), &report); err != nil {
		slog.Warn("grade response undecodable, using default", "error", err)
		return DefaultGradeReport(), nil
	}
	if report.Grade == "" {
		return DefaultGradeReport(), nil
	}
	return &report, nil
}

// Review is the full outcome of one submitted attempt.
type Review struct {
	Transcription string       `yaml:"transcription" json:"transcription"`
	Translation   string       `yaml:"translation" json:"translation"`
	Report        *GradeReport `yaml:"report" json:"report"`
}

// Submit runs the complete review pipeline for a handwritten attempt at
// the given English sentence.
func (s *WritingService) Submit(ctx context.Context, english string, image []byte) (*Review, error) {
	japanese, err := s.Transcribe(ctx, image)
	if err != nil {
		return nil, err
	}

	translation, err := s.Translate(ctx, japanese)
	if err != nil {
		return nil, err
	}

	report, err := s.Grade(ctx, english, japanese, translation)
	if err != nil {
		return nil, err
	}

	return &Review{
		Transcription: japanese,
		Translation:   translation,
		Report:        report,
	}, nil
}
