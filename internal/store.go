package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// SearchHit is one similarity-search result: the reconstructed question plus
// the raw distance to the query. The embedded Section makes hits
// self-describing when callers merge results across partitions.
type SearchHit struct {
	StoredQuestion
	Distance float32
}

// QuestionStore persists listening-comprehension questions partitioned by
// section, embeds their searchable text, and answers nearest-neighbor and
// exact-id lookups. Each partition owns its own Annoy index; payloads live
// in a shared Badger store under partition-prefixed keys.
//
// Re-ingesting a source id overwrites: derived ids collide and the
// underlying store upserts.
type QuestionStore struct {
	dir      string
	embedder Embedder
	docs     *DocStore
	indexes  map[Section]*AnnoyIndex
	numTrees int
}

type StoreOption func(*storeConfig)

type storeConfig struct {
	dimension int
	numTrees  int
}

func WithStoreDimension(dim int) StoreOption {
	return func(c *storeConfig) { c.dimension = dim }
}

func WithNumTrees(n int) StoreOption {
	return func(c *storeConfig) { c.numTrees = n }
}

// NewQuestionStore opens (or creates) the store under dir. An empty dir
// keeps documents in memory and indexes in a temp directory; tests use this.
// The embedder is always wrapped so that provider failures degrade to zero
// vectors instead of blocking ingestion.
func NewQuestionStore(dir string, embedder Embedder, opts ...StoreOption) (*QuestionStore, error) {
	cfg := storeConfig{
		dimension: embedder.Dimension(),
		numTrees:  DefaultNumTrees,
	}
	for _, o := range opts {
		o(&cfg)
	}

	docDir := ""
	indexRoot := dir
	if dir != "" {
		docDir = filepath.Join(dir, "docs")
	} else {
		tmp, err := os.MkdirTemp("", "kiki-index-*")
		if err != nil {
			return nil, fmt.Errorf("create index temp dir: %w", err)
		}
		indexRoot = tmp
	}

	docs, err := OpenDocStore(docDir)
	if err != nil {
		return nil, err
	}

	indexes := make(map[Section]*AnnoyIndex, 2)
	for _, section := range []Section{Section2, Section3} {
		idx, err := NewAnnoyIndex(filepath.Join(indexRoot, section.Partition()), cfg.dimension)
		if err != nil {
			docs.Close()
			return nil, fmt.Errorf("open %s index: %w", section.Partition(), err)
		}
		if err := idx.Load(context.Background()); err != nil {
			slog.Warn("could not load partition index, starting empty",
				"partition", section.Partition(), "error", err)
		}
		indexes[section] = idx
	}

	return &QuestionStore{
		dir:      dir,
		embedder: NewZeroFallback(embedder),
		docs:     docs,
		indexes:  indexes,
		numTrees: cfg.numTrees,
	}, nil
}

func (s *QuestionStore) partition(section Section) (*AnnoyIndex, error) {
	idx, ok := s.indexes[section]
	if !ok {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSection, int(section))
	}
	return idx, nil
}

func docKey(section Section, id string) string {
	return section.Partition() + "/" + id
}

// Ingest assigns derived ids "{sourceID}_{section}_{index}" to the given
// questions, stores their serialized payloads, embeds their searchable text
// and rebuilds the partition index. The returned records carry the assigned
// ids in input order.
func (s *QuestionStore) Ingest(ctx context.Context, section Section, questions []Question, sourceID string) ([]StoredQuestion, error) {
	index, err := s.partition(section)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	stored := make([]StoredQuestion, len(questions))
	entries := make([]DocEntry, len(questions))
	texts := make([]string, len(questions))

	for i, q := range questions {
		sq := StoredQuestion{
			ID:       QuestionID(sourceID, section, i),
			SourceID: sourceID,
			Index:    i,
			Section:  section,
			Question: q,
		}

		payload, err := EncodeStoredQuestion(sq)
		if err != nil {
			return nil, fmt.Errorf("ingest %s: %w", sq.ID, err)
		}

		stored[i] = sq
		entries[i] = DocEntry{Key: docKey(section, sq.ID), Value: payload}
		texts[i] = q.SearchableText()
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed questions: %w", err)
	}

	if err := s.docs.SetBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("store questions: %w", err)
	}

	for i, sq := range stored {
		emb := NewEmbedding(vecs[i], "")
		if err := index.Add(ctx, sq.ID, emb); err != nil {
			return nil, fmt.Errorf("index %s: %w", sq.ID, err)
		}
	}

	if err := index.Build(ctx, s.numTrees); err != nil {
		return nil, fmt.Errorf("build %s index: %w", section.Partition(), err)
	}
	if err := index.Save(ctx); err != nil {
		return nil, fmt.Errorf("save %s index: %w", section.Partition(), err)
	}

	return stored, nil
}

// SearchSimilar returns up to topN stored questions nearest to the query
// text, ordered by ascending raw distance. An empty partition yields an
// empty result, not an error.
func (s *QuestionStore) SearchSimilar(ctx context.Context, section Section, query string, topN int) ([]SearchHit, error) {
	index, err := s.partition(section)
	if err != nil {
		return nil, err
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := index.Search(ctx, NewEmbedding(vec, ""), topN)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", section.Partition(), err)
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		sq, err := s.getStored(ctx, section, r.ID)
		if err != nil {
			slog.Warn("indexed question missing from document store",
				"id", r.ID, "error", err)
			continue
		}
		hits = append(hits, SearchHit{StoredQuestion: sq, Distance: r.Distance})
	}

	return hits, nil
}

// GetByID looks a question up by its derived id within the section's
// partition. Absent ids return ErrNotFound.
func (s *QuestionStore) GetByID(ctx context.Context, section Section, id string) (StoredQuestion, error) {
	if _, err := s.partition(section); err != nil {
		return StoredQuestion{}, err
	}
	return s.getStored(ctx, section, id)
}

func (s *QuestionStore) getStored(ctx context.Context, section Section, id string) (StoredQuestion, error) {
	payload, err := s.docs.Get(ctx, docKey(section, id))
	if err != nil {
		return StoredQuestion{}, err
	}

	sq, err := DecodeStoredQuestion(payload)
	if err != nil {
		return StoredQuestion{}, err
	}
	sq.Section = section
	return sq, nil
}

// IngestFromFile parses a "{sourceID}_section{N}.txt" question file and
// ingests whatever parsed cleanly. Unreadable content is reported as a
// warning and yields zero ingested questions; only an invalid section in
// the filename is an error.
func (s *QuestionStore) IngestFromFile(ctx context.Context, path string) ([]StoredQuestion, error) {
	sourceID, section, err := ParseQuestionFilename(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Warn("cannot read question file", "path", path, "error", err)
		return nil, nil
	}
	defer f.Close()

	questions, err := ParseQuestionBlocks(f, section)
	if err != nil {
		slog.Warn("question file partially unreadable",
			"path", path, "parsed", len(questions), "error", err)
	}
	if len(questions) == 0 {
		return nil, nil
	}

	return s.Ingest(ctx, section, questions, sourceID)
}

// Rebuild re-embeds every stored question in the section's partition and
// rebuilds its index from scratch. Useful after switching embedding models.
func (s *QuestionStore) Rebuild(ctx context.Context, section Section) (int, error) {
	index, err := s.partition(section)
	if err != nil {
		return 0, err
	}

	entries, err := s.docs.List(ctx, section.Partition()+"/")
	if err != nil {
		return 0, err
	}

	// Vectors for records no longer in the document store must not survive
	// the rebuild.
	if err := index.Reset(ctx); err != nil {
		return 0, fmt.Errorf("reset %s index: %w", section.Partition(), err)
	}

	count := 0
	for _, e := range entries {
		sq, err := DecodeStoredQuestion(e.Value)
		if err != nil {
			slog.Warn("skipping undecodable stored question", "key", e.Key, "error", err)
			continue
		}

		vec, err := s.embedder.Embed(ctx, sq.Question.SearchableText())
		if err != nil {
			return count, fmt.Errorf("embed %s: %w", sq.ID, err)
		}
		if err := index.Add(ctx, sq.ID, NewEmbedding(vec, "")); err != nil {
			return count, fmt.Errorf("index %s: %w", sq.ID, err)
		}
		count++
	}

	if err := index.Build(ctx, s.numTrees); err != nil {
		return count, fmt.Errorf("build %s index: %w", section.Partition(), err)
	}
	return count, index.Save(ctx)
}

// Stats returns the number of stored questions per section.
func (s *QuestionStore) Stats(ctx context.Context) (map[Section]int, error) {
	stats := make(map[Section]int, len(s.indexes))
	for section := range s.indexes {
		n, err := s.docs.Count(ctx, section.Partition()+"/")
		if err != nil {
			return nil, err
		}
		stats[section] = n
	}
	return stats, nil
}

func (s *QuestionStore) Close() error {
	return s.docs.Close()
}
