package internal

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	questionOpen  = "<question>"
	questionClose = "</question>"
)

var fieldLabels = []string{"Introduction", "Conversation", "Situation", "Question", "Options"}

// blockParser accumulates one question block, fed line by line. A label line
// opens a field; following lines append to it until the next label or the
// block end. "Options:" collects lines numbered "1." through "4.".
type blockParser struct {
	fields  map[string][]string
	options []string
	label   string
}

func newBlockParser() *blockParser {
	return &blockParser{fields: make(map[string][]string)}
}

func (p *blockParser) feed(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	for _, label := range fieldLabels {
		rest, ok := strings.CutPrefix(line, label+":")
		if !ok {
			continue
		}
		p.label = label
		if rest = strings.TrimSpace(rest); rest != "" && label != "Options" {
			p.fields[label] = append(p.fields[label], rest)
		}
		return
	}

	if p.label == "Options" {
		if len(line) >= 2 && line[0] >= '1' && line[0] <= '4' && line[1] == '.' {
			p.options = append(p.options, strings.TrimSpace(line[2:]))
		}
		return
	}

	if p.label != "" {
		p.fields[p.label] = append(p.fields[p.label], line)
	}
}

func (p *blockParser) field(label string) string {
	return strings.Join(p.fields[label], " ")
}

// question validates the accumulated block into the section's shape. An
// options list that is not exactly four entries is replaced wholesale by
// DefaultOptions rather than padded.
func (p *blockParser) question(section Section) (Question, error) {
	options := DefaultOptions
	if len(p.options) == 4 {
		copy(options[:], p.options)
	}

	switch section {
	case Section2:
		q := Section2Question{
			Introduction: p.field("Introduction"),
			Conversation: p.field("Conversation"),
			Question:     p.field("Question"),
			Options:      options,
		}
		if q.Introduction == "" || q.Conversation == "" || q.Question == "" {
			return nil, fmt.Errorf("incomplete section 2 block: introduction, conversation and question are required")
		}
		return q, nil

	case Section3:
		q := Section3Question{
			Situation: p.field("Situation"),
			Question:  p.field("Question"),
			Options:   options,
		}
		if q.Situation == "" || q.Question == "" {
			return nil, fmt.Errorf("incomplete section 3 block: situation and question are required")
		}
		return q, nil

	default:
		return nil, ErrInvalidSection
	}
}

// ParseQuestionBlocks reads <question>...</question> blocks and returns the
// successfully parsed Questions in file order. Parsing is best-effort:
// malformed blocks are skipped with a logged warning, never fatal.
func ParseQuestionBlocks(r io.Reader, section Section) ([]Question, error) {
	if !section.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSection, int(section))
	}

	sc := bufio.NewScanner(r)

	var questions []Question
	var block *blockParser

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch {
		case strings.HasPrefix(line, questionOpen):
			block = newBlockParser()

		case strings.HasPrefix(line, questionClose):
			if block == nil {
				continue
			}
			q, err := block.question(section)
			if err != nil {
				slog.Warn("skipping malformed question block",
					"index", len(questions), "error", err)
			} else {
				questions = append(questions, q)
			}
			block = nil

		default:
			if block != nil {
				block.feed(line)
			}
		}
	}

	if err := sc.Err(); err != nil {
		return questions, fmt.Errorf("read question blocks: %w", err)
	}
	return questions, nil
}

// ParseGeneratedQuestion parses a model completion into a Question. The
// generated text uses the same labels but carries content on the label line
// itself; no block markers are expected.
func ParseGeneratedQuestion(text string, section Section) (Question, error) {
	if !section.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSection, int(section))
	}

	block := newBlockParser()
	for _, line := range strings.Split(text, "\n") {
		block.feed(line)
	}

	q, err := block.question(section)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return q, nil
}
