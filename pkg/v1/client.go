package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/kikitori/internal"
)

// Client provides programmatic access to the question store.
type Client struct {
	store *internal.QuestionStore
}

// New creates a Client backed by the Ollama-compatible embedding endpoint.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimension: internal.DefaultEmbeddingDim,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var remoteOpts []internal.RemoteOption
	if cfg.baseURL != "" {
		remoteOpts = append(remoteOpts, internal.WithBaseURL(cfg.baseURL))
	}
	if cfg.model != "" {
		remoteOpts = append(remoteOpts, internal.WithEmbeddingModel(cfg.model))
	}
	remoteOpts = append(remoteOpts, internal.WithDimension(cfg.dimension))

	embedder := internal.NewRemoteEmbedder(remoteOpts...)

	store, err := internal.NewQuestionStore(cfg.dir, embedder,
		internal.WithStoreDimension(cfg.dimension))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &Client{store: store}, nil
}

// Ingest stores a batch of questions for one source. Derived ids are
// returned in input order.
func (c *Client) Ingest(ctx context.Context, sourceID string, section int, questions []Question) ([]string, error) {
	sec, err := internal.ParseSection(section)
	if err != nil {
		return nil, err
	}

	qs := make([]internal.Question, len(questions))
	for i, q := range questions {
		iq, err := toInternal(sec, q)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		qs[i] = iq
	}

	stored, err := c.store.Ingest(ctx, sec, qs, sourceID)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	ids := make([]string, len(stored))
	for i, sq := range stored {
		ids[i] = sq.ID
	}
	return ids, nil
}

// IngestFile parses and ingests a question file named
// {source}_section{2|3}.txt.
func (c *Client) IngestFile(ctx context.Context, path string) ([]string, error) {
	stored, err := c.store.IngestFromFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ingest file: %w", err)
	}

	ids := make([]string, len(stored))
	for i, sq := range stored {
		ids[i] = sq.ID
	}
	return ids, nil
}

// Search returns up to topN questions similar to the query, most similar
// first.
func (c *Client) Search(ctx context.Context, section int, query string, topN int) ([]SearchHit, error) {
	sec, err := internal.ParseSection(section)
	if err != nil {
		return nil, err
	}

	hits, err := c.store.SearchSimilar(ctx, sec, query, topN)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]SearchHit, len(hits))
	for i, h := range hits {
		out[i] = SearchHit{
			Question: fromInternal(h.StoredQuestion),
			Distance: h.Distance,
		}
	}
	return out, nil
}

// Get retrieves a question by its derived id.
func (c *Client) Get(ctx context.Context, section int, id string) (Question, error) {
	sec, err := internal.ParseSection(section)
	if err != nil {
		return Question{}, err
	}

	sq, err := c.store.GetByID(ctx, sec, id)
	if err != nil {
		return Question{}, fmt.Errorf("get: %w", err)
	}
	return fromInternal(sq), nil
}

// Close releases the store.
func (c *Client) Close() error {
	return c.store.Close()
}

func toInternal(section internal.Section, q Question) (internal.Question, error) {
	switch section {
	case internal.Section2:
		if q.Conversation == "" || q.Question == "" {
			return nil, fmt.Errorf("section 2 requires conversation and question")
		}
		return internal.Section2Question{
			Introduction: q.Introduction,
			Conversation: q.Conversation,
			Question:     q.Question,
			Options:      q.Options,
		}, nil
	case internal.Section3:
		if q.Situation == "" || q.Question == "" {
			return nil, fmt.Errorf("section 3 requires situation and question")
		}
		return internal.Section3Question{
			Situation: q.Situation,
			Question:  q.Question,
			Options:   q.Options,
		}, nil
	}
	return nil, internal.ErrInvalidSection
}

func fromInternal(sq internal.StoredQuestion) Question {
	out := Question{
		ID:       sq.ID,
		SourceID: sq.SourceID,
		Section:  int(sq.Section),
		Options:  sq.Question.AnswerOptions(),
	}
	switch v := sq.Question.(type) {
	case internal.Section2Question:
		out.Introduction = v.Introduction
		out.Conversation = v.Conversation
		out.Question = v.Question
	case internal.Section3Question:
		out.Situation = v.Situation
		out.Question = v.Question
	}
	return out
}
