package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrInvalidSection      = errors.New("invalid section: only sections 2 and 3 are supported")
	ErrNotFound            = errors.New("question not found")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrMalformedResponse   = errors.New("malformed model response")
	ErrInvalidTransition   = errors.New("invalid session transition")
)

// Section identifies a JLPT listening test section. Only sections 2 and 3
// are supported; each has its own question shape and its own index partition.
type Section int

const (
	Section2 Section = 2
	Section3 Section = 3
)

func ParseSection(n int) (Section, error) {
	switch Section(n) {
	case Section2, Section3:
		return Section(n), nil
	default:
		return 0, fmt.Errorf("%w: got %d", ErrInvalidSection, n)
	}
}

func (s Section) Valid() bool {
	return s == Section2 || s == Section3
}

// Partition returns the partition name used for on-disk paths,
// e.g. "section2".
func (s Section) Partition() string {
	return fmt.Sprintf("section%d", int(s))
}

// DefaultOptions is the fallback option set substituted when a parsed or
// generated question does not come with exactly four options.
var DefaultOptions = [4]string{
	"ピザを食べる",
	"ハンバーガーを食べる",
	"サラダを食べる",
	"パスタを食べる",
}

// Question is the sum type over the two supported question shapes.
// Implementations are Section2Question and Section3Question; nothing else
// satisfies the interface.
type Question interface {
	Section() Section

	// SearchableText is the newline-joined narrative content used to compute
	// the question's embedding. Answer options are excluded: they are answer
	// choices, not comprehension content, and would bias retrieval toward
	// lexical overlap in distractors.
	SearchableText() string

	AnswerOptions() [4]string

	isQuestion()
}

// Section2Question is a conversation-comprehension item: an introduction
// sets the scene, a conversation follows, then a question with four options.
type Section2Question struct {
	Introduction string    `json:"introduction"`
	Conversation string    `json:"conversation"`
	Question     string    `json:"question"`
	Options      [4]string `json:"options"`
}

func (Section2Question) isQuestion()      {}
func (Section2Question) Section() Section { return Section2 }

func (q Section2Question) SearchableText() string {
	return strings.Join([]string{q.Introduction, q.Conversation, q.Question}, "\n")
}

func (q Section2Question) AnswerOptions() [4]string { return q.Options }

// Section3Question is a phrase-matching item: a short situation, then a
// question with four options.
type Section3Question struct {
	Situation string    `json:"situation"`
	Question  string    `json:"question"`
	Options   [4]string `json:"options"`
}

func (Section3Question) isQuestion()      {}
func (Section3Question) Section() Section { return Section3 }

func (q Section3Question) SearchableText() string {
	return strings.Join([]string{q.Situation, q.Question}, "\n")
}

func (q Section3Question) AnswerOptions() [4]string { return q.Options }

// StoredQuestion is a question as persisted in the store, together with its
// provenance and derived identifier.
type StoredQuestion struct {
	ID       string
	SourceID string
	Index    int
	Section  Section
	Question Question
}

// QuestionID derives the stable composite key "{sourceID}_{section}_{index}".
// The index is zero-based within the originating source file.
func QuestionID(sourceID string, section Section, index int) string {
	return fmt.Sprintf("%s_%d_%d", sourceID, int(section), index)
}

// questionPayload is the serialized envelope stored alongside the embedding,
// so the original structure can be reconstructed exactly on retrieval.
type questionPayload struct {
	SourceID string            `json:"source_id"`
	Index    int               `json:"index"`
	Section  int               `json:"section"`
	Section2 *Section2Question `json:"section2,omitempty"`
	Section3 *Section3Question `json:"section3,omitempty"`
}

func EncodeStoredQuestion(sq StoredQuestion) ([]byte, error) {
	p := questionPayload{
		SourceID: sq.SourceID,
		Index:    sq.Index,
		Section:  int(sq.Section),
	}

	switch q := sq.Question.(type) {
	case Section2Question:
		p.Section2 = &q
	case Section3Question:
		p.Section3 = &q
	default:
		return nil, fmt.Errorf("encode question %s: unknown question type %T", sq.ID, sq.Question)
	}

	return json.Marshal(p)
}

func DecodeStoredQuestion(data []byte) (StoredQuestion, error) {
	var p questionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return StoredQuestion{}, fmt.Errorf("decode question payload: %w", err)
	}

	section, err := ParseSection(p.Section)
	if err != nil {
		return StoredQuestion{}, err
	}

	sq := StoredQuestion{
		SourceID: p.SourceID,
		Index:    p.Index,
		Section:  section,
		ID:       QuestionID(p.SourceID, section, p.Index),
	}

	switch {
	case p.Section2 != nil:
		sq.Question = *p.Section2
	case p.Section3 != nil:
		sq.Question = *p.Section3
	default:
		return StoredQuestion{}, fmt.Errorf("decode question payload: no question body for section %d", p.Section)
	}

	return sq, nil
}

// ParseQuestionFilename extracts the source id and section from a question
// file name of the form "{sourceID}_section{N}.txt".
func ParseQuestionFilename(path string) (string, Section, error) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	sourceID, rest, found := strings.Cut(base, "_section")
	if !found || sourceID == "" {
		return "", 0, fmt.Errorf("parse filename %q: want {sourceID}_section{N}.txt", filepath.Base(path))
	}

	n, err := strconv.Atoi(rest)
	if err != nil {
		return "", 0, fmt.Errorf("parse filename %q: bad section number: %w", filepath.Base(path), err)
	}

	section, err := ParseSection(n)
	if err != nil {
		return "", 0, err
	}

	return sourceID, section, nil
}
