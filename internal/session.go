package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SessionState is the phase a writing practice session is in.
type SessionState string

const (
	// StateSetup is the initial phase, before a sentence exists.
	StateSetup SessionState = "setup"
	// StatePractice means a sentence is issued and awaiting an attempt.
	StatePractice SessionState = "practice"
	// StateReview means an attempt was graded and can be inspected.
	StateReview SessionState = "review"
)

var sessionTransitions = map[SessionState][]SessionState{
	StateSetup:    {StatePractice},
	StatePractice: {StateReview},
	StateReview:   {StatePractice},
}

// Session is the persisted writing practice state. It survives process
// exits so the practice flow can span CLI invocations.
type Session struct {
	State    SessionState `yaml:"state"`
	Word     string       `yaml:"word,omitempty"`
	Sentence string       `yaml:"sentence,omitempty"`
	Review   *Review      `yaml:"review,omitempty"`
}

// NewSession starts in setup with no sentence.
func NewSession() *Session {
	return &Session{State: StateSetup}
}

// Transition moves the session to the next state, failing with
// ErrInvalidTransition when the move is not allowed.
func (s *Session) Transition(to SessionState) error {
	for _, allowed := range sessionTransitions[s.State] {
		if to == allowed {
			s.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, to)
}

// StartPractice issues a new sentence and clears any previous review.
func (s *Session) StartPractice(word, sentence string) error {
	if err := s.Transition(StatePractice); err != nil {
		return err
	}
	s.Word = word
	s.Sentence = sentence
	s.Review = nil
	return nil
}

// CompleteReview records the graded attempt.
func (s *Session) CompleteReview(review *Review) error {
	if err := s.Transition(StateReview); err != nil {
		return err
	}
	s.Review = review
	return nil
}

const sessionFilename = "session.yaml"

// LoadSession reads the session file under dir. A missing file yields a
// fresh setup session.
func LoadSession(dir string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(dir, sessionFilename))
	if errors.Is(err, os.ErrNotExist) {
		return NewSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if _, ok := sessionTransitions[s.State]; !ok {
		return nil, fmt.Errorf("parse session: unknown state %q", s.State)
	}
	return &s, nil
}

// Save writes the session file under dir.
func (s *Session) Save(dir string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sessionFilename), data, 0o644); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
