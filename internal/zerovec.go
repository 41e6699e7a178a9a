package internal

import (
	"context"
	"log/slog"
)

var _ Embedder = (*ZeroFallback)(nil)

// ZeroFallback wraps an Embedder so that provider failures degrade to
// all-zero vectors of the expected dimension instead of propagating. This
// keeps ingestion and search available when the embedding backend is down:
// affected records are embedded at the origin and stay retrievable by id,
// trading search quality for availability.
type ZeroFallback struct {
	inner Embedder
}

func NewZeroFallback(inner Embedder) *ZeroFallback {
	return &ZeroFallback{inner: inner}
}

func (z *ZeroFallback) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := z.inner.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding failed, degrading to zero vector", "error", err)
		return make([]float32, z.inner.Dimension()), nil
	}
	return vec, nil
}

func (z *ZeroFallback) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := z.inner.EmbedBatch(ctx, texts)
	if err != nil {
		slog.Warn("batch embedding failed, degrading to zero vectors",
			"count", len(texts), "error", err)
		vecs = make([][]float32, len(texts))
		for i := range vecs {
			vecs[i] = make([]float32, z.inner.Dimension())
		}
		return vecs, nil
	}
	return vecs, nil
}

func (z *ZeroFallback) Dimension() int {
	return z.inner.Dimension()
}
