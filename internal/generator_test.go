package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeProvider returns canned completions in call order.
type fakeProvider struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeProvider) Complete(_ context.Context, prompt string, _ SamplingParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeProvider) GenerateObject(context.Context, string, any) error {
	return errors.New("not implemented")
}

func (f *fakeProvider) Stream(context.Context, string) (<-chan string, error) {
	return nil, errors.New("not implemented")
}

// structuredProvider answers through structured output only; Complete calls
// are recorded so tests can assert the free-text path stayed cold.
type structuredProvider struct {
	feedback       *Feedback
	report         *GradeReport
	completeCalled bool
}

func (p *structuredProvider) Complete(context.Context, string, SamplingParams) (string, error) {
	p.completeCalled = true
	return "", nil
}

func (p *structuredProvider) GenerateObject(_ context.Context, _ string, target any) error {
	switch v := target.(type) {
	case *Feedback:
		if p.feedback == nil {
			return errors.New("no feedback configured")
		}
		*v = *p.feedback
	case *GradeReport:
		if p.report == nil {
			return errors.New("no report configured")
		}
		*v = *p.report
	default:
		return errors.New("unsupported target")
	}
	return nil
}

func (p *structuredProvider) Stream(context.Context, string) (<-chan string, error) {
	return nil, errors.New("not implemented")
}

// streamProvider serves a canned response in chunks.
type streamProvider struct {
	fakeProvider
	chunks []string
}

func (p *streamProvider) Stream(_ context.Context, prompt string) (<-chan string, error) {
	p.prompts = append(p.prompts, prompt)
	ch := make(chan string, len(p.chunks))
	for _, c := range p.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func seededGenerator(t *testing.T, provider Provider) *QuestionGenerator {
	t.Helper()

	store := newTestStore(t)
	if _, err := store.Ingest(context.Background(), Section2, testQuestions(), "seed"); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return NewQuestionGenerator(store, provider, DefaultSampling)
}

func TestGenerateSimilar(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`Introduction: 女の人が八百屋で話しています。
Conversation: トマトをください。 はい、三つで二百円です。
Question: 女の人は何を買いますか。
Options:
1. トマト
2. きゅうり
3. なす
4. ピーマン`,
	}}

	gen := seededGenerator(t, provider)
	q, err := gen.GenerateSimilar(context.Background(), Section2, "買い物")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	s2, ok := q.(Section2Question)
	if !ok {
		t.Fatalf("question type = %T", q)
	}
	if s2.Options[0] != "トマト" {
		t.Errorf("options = %v", s2.Options)
	}

	// The prompt carries the stored questions as few-shot examples.
	if len(provider.prompts) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.prompts))
	}
	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "買い物") {
		t.Error("prompt missing topic")
	}
	if !strings.Contains(prompt, "Example 1:") {
		t.Error("prompt missing few-shot examples")
	}
}

func TestGenerateSimilarEmptyPartition(t *testing.T) {
	store := newTestStore(t)
	gen := NewQuestionGenerator(store, &fakeProvider{}, DefaultSampling)

	_, err := gen.GenerateSimilar(context.Background(), Section3, "旅行")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGenerateSimilarProviderDown(t *testing.T) {
	gen := seededGenerator(t, &fakeProvider{err: errors.New("connection refused")})

	_, err := gen.GenerateSimilar(context.Background(), Section2, "買い物")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestGenerateSimilarMalformedCompletion(t *testing.T) {
	gen := seededGenerator(t, &fakeProvider{responses: []string{"Sure! Here is a question for you."}})

	_, err := gen.GenerateSimilar(context.Background(), Section2, "買い物")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestFeedback(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`{"correct": true, "explanation": "会話の中でラーメンを選んでいます。", "correct_answer": 1}`,
	}}
	gen := seededGenerator(t, provider)

	fb, err := gen.Feedback(context.Background(), testQuestions()[0], 1)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !fb.Correct || fb.CorrectAnswer != 1 {
		t.Errorf("feedback = %+v", fb)
	}
}

func TestGenerateSimilarStream(t *testing.T) {
	text := `Introduction: 女の人が八百屋で話しています。
Conversation: トマトをください。 はい、三つで二百円です。
Question: 女の人は何を買いますか。
Options:
1. トマト
2. きゅうり
3. なす
4. ピーマン`

	// Chunk boundaries fall mid-line to mimic token-by-token delivery.
	provider := &streamProvider{chunks: []string{
		text[:20], text[20:57], text[57:],
	}}
	gen := seededGenerator(t, provider)

	var sink bytes.Buffer
	q, err := gen.GenerateSimilarStream(context.Background(), Section2, "買い物", &sink)
	if err != nil {
		t.Fatalf("generate stream: %v", err)
	}

	s2, ok := q.(Section2Question)
	if !ok {
		t.Fatalf("question type = %T", q)
	}
	if s2.Options[0] != "トマト" {
		t.Errorf("options = %v", s2.Options)
	}
	if sink.String() != text {
		t.Errorf("sink = %q, want the full model text", sink.String())
	}
}

func TestFeedbackStructuredOutput(t *testing.T) {
	provider := &structuredProvider{feedback: &Feedback{
		Correct:       true,
		Explanation:   "会話の中でラーメンを選んでいます。",
		CorrectAnswer: 1,
	}}
	gen := seededGenerator(t, provider)

	fb, err := gen.Feedback(context.Background(), testQuestions()[0], 1)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !fb.Correct || fb.CorrectAnswer != 1 {
		t.Errorf("feedback = %+v", fb)
	}
	if provider.completeCalled {
		t.Error("free-text path used despite structured output")
	}
}

func TestFeedbackStructuredOutOfRange(t *testing.T) {
	provider := &structuredProvider{feedback: &Feedback{
		Correct:       true,
		Explanation:   "わかりません。",
		CorrectAnswer: 9,
	}}
	gen := seededGenerator(t, provider)

	fb, err := gen.Feedback(context.Background(), testQuestions()[0], 1)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	want := DefaultFeedback()
	if fb.Correct != want.Correct || fb.CorrectAnswer != want.CorrectAnswer {
		t.Errorf("feedback = %+v, want default", fb)
	}
}

func TestFeedbackRepairsJSON(t *testing.T) {
	// Trailing comma and unquoted key, typical model sloppiness.
	provider := &fakeProvider{responses: []string{
		"{\"correct\": false, \"explanation\": \"違います\", \"correct_answer\": 3,}",
	}}
	gen := seededGenerator(t, provider)

	fb, err := gen.Feedback(context.Background(), testQuestions()[0], 2)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if fb.Correct || fb.CorrectAnswer != 3 {
		t.Errorf("feedback = %+v", fb)
	}
}

func TestFeedbackUndecodableUsesDefault(t *testing.T) {
	provider := &fakeProvider{responses: []string{"I cannot answer that."}}
	gen := seededGenerator(t, provider)

	fb, err := gen.Feedback(context.Background(), testQuestions()[0], 2)
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	want := DefaultFeedback()
	if fb.Correct != want.Correct || fb.Explanation != want.Explanation || fb.CorrectAnswer != want.CorrectAnswer {
		t.Errorf("feedback = %+v, want default", fb)
	}
}

func TestFeedbackRejectsBadAnswer(t *testing.T) {
	gen := seededGenerator(t, &fakeProvider{})

	for _, selected := range []int{0, 5, -1} {
		if _, err := gen.Feedback(context.Background(), testQuestions()[0], selected); err == nil {
			t.Errorf("answer %d accepted", selected)
		}
	}
}

func TestFormatQuestionRoundTrip(t *testing.T) {
	q := testQuestions()[0].(Section2Question)

	parsed, err := ParseGeneratedQuestion(FormatQuestion(q), Section2)
	if err != nil {
		t.Fatalf("parse formatted question: %v", err)
	}
	if parsed.(Section2Question) != q {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, q)
	}
}
