package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	// DefaultOllamaBaseURL is the OpenAI-compatible endpoint of a local
	// Ollama server.
	DefaultOllamaBaseURL = "http://localhost:11434/v1"

	// DefaultEmbeddingModel is a small sentence-embedding model served by
	// Ollama; 384 dimensions.
	DefaultEmbeddingModel = "all-minilm"

	DefaultEmbeddingDim = 384

	remoteMaxBatch = 512
)

var _ Embedder = (*RemoteEmbedder)(nil)

// RemoteEmbedder computes embeddings through an OpenAI-compatible
// embeddings API. The default configuration targets a local Ollama server;
// any compatible provider works by overriding the base URL and API key.
type RemoteEmbedder struct {
	client openai.Client
	model  string
	dim    int
}

type RemoteOption func(*remoteConfig)

type remoteConfig struct {
	baseURL    string
	apiKey     string
	model      string
	dim        int
	httpClient *http.Client
}

func WithBaseURL(url string) RemoteOption {
	return func(c *remoteConfig) { c.baseURL = url }
}

func WithAPIKey(key string) RemoteOption {
	return func(c *remoteConfig) { c.apiKey = key }
}

func WithEmbeddingModel(model string) RemoteOption {
	return func(c *remoteConfig) { c.model = model }
}

func WithDimension(dim int) RemoteOption {
	return func(c *remoteConfig) { c.dim = dim }
}

func WithHTTPClient(client *http.Client) RemoteOption {
	return func(c *remoteConfig) { c.httpClient = client }
}

func NewRemoteEmbedder(opts ...RemoteOption) *RemoteEmbedder {
	cfg := remoteConfig{
		baseURL:    DefaultOllamaBaseURL,
		apiKey:     "ollama", // Ollama accepts any non-empty key
		model:      DefaultEmbeddingModel,
		dim:        DefaultEmbeddingDim,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(&cfg)
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.apiKey),
		option.WithBaseURL(cfg.baseURL),
		option.WithHTTPClient(cfg.httpClient),
	)

	return &RemoteEmbedder{
		client: client,
		model:  cfg.model,
		dim:    cfg.dim,
	}
}

func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	result := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += remoteMaxBatch {
		end := min(i+remoteMaxBatch, len(texts))

		vecs, err := e.callAPI(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		copy(result[i:], vecs)
	}
	return result, nil
}

func (e *RemoteEmbedder) Dimension() int {
	return e.dim
}

func (e *RemoteEmbedder) Model() string {
	return e.model
}

func (e *RemoteEmbedder) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model:          openai.EmbeddingModel(e.model),
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		idx := item.Index
		if idx < 0 || idx >= int64(len(texts)) {
			return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", idx, len(texts))
		}
		vecs[idx] = float64sToFloat32s(item.Embedding)
	}

	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return vecs, nil
}

func float64sToFloat32s(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
