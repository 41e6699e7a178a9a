package internal

import "context"

type Embedding struct {
	Vector    []float32
	Dimension int
	Model     string
}

func NewEmbedding(vec []float32, model string) Embedding {
	return Embedding{
		Vector:    vec,
		Dimension: len(vec),
		Model:     model,
	}
}

// ZeroEmbedding returns an all-zero vector of the given dimension. Failed
// embedding calls degrade to this so ingestion never blocks on an
// unreachable provider; zero-embedded records cluster near the origin but
// remain indexed and retrievable.
func ZeroEmbedding(dim int, model string) Embedding {
	return Embedding{
		Vector:    make([]float32, dim),
		Dimension: dim,
		Model:     model,
	}
}

// SearchResult is a raw index hit. Distance is the angular distance reported
// by the index: lower means more similar. It is not normalized into a
// bounded score.
type SearchResult struct {
	ID       string
	Distance float32
}

type VectorIndex interface {
	Add(ctx context.Context, id string, emb Embedding) error
	Remove(ctx context.Context, id string) error

	// Search returns up to k results ordered by ascending distance.
	Search(ctx context.Context, query Embedding, k int) ([]SearchResult, error)

	Build(ctx context.Context, numTrees int) error
	Reset(ctx context.Context) error
	Save(ctx context.Context) error
	Load(ctx context.Context) error
	Contains(ctx context.Context, id string) bool
	Len() int
}
