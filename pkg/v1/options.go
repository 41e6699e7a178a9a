package v1

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	dir       string
	dimension int
	baseURL   string
	model     string
}

// WithDir sets the store directory. An empty dir keeps everything in
// memory.
func WithDir(dir string) Option {
	return func(c *clientConfig) {
		c.dir = dir
	}
}

// WithDimension sets the embedding dimension.
func WithDimension(dim int) Option {
	return func(c *clientConfig) {
		c.dimension = dim
	}
}

// WithBaseURL sets the embedding endpoint base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithEmbeddingModel sets the embedding model name.
func WithEmbeddingModel(model string) Option {
	return func(c *clientConfig) {
		c.model = model
	}
}
