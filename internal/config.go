package internal

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type EmbeddingsConfig struct {
	Backend   string `yaml:"backend"` // "ollama" or "local"
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type AudioConfig struct {
	VoicevoxURL string     `yaml:"voicevox_url"`
	Voices      VoiceTable `yaml:"voices"`
}

type WritingConfig struct {
	OCRURL   string `yaml:"ocr_url"`
	VocabURL string `yaml:"vocab_url"`
}

type Config struct {
	Embeddings      EmbeddingsConfig          `yaml:"embeddings"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Audio           AudioConfig               `yaml:"audio"`
	Writing         WritingConfig             `yaml:"writing"`
}

func DefaultConfig() *Config {
	return &Config{
		Embeddings: EmbeddingsConfig{
			Backend:   "ollama",
			Model:     DefaultEmbeddingModel,
			Dimension: DefaultEmbeddingDim,
			BaseURL:   DefaultOllamaBaseURL,
		},
		Providers: make(map[string]ProviderConfig),
		Audio: AudioConfig{
			VoicevoxURL: DefaultVoicevoxURL,
			Voices:      DefaultVoices(),
		},
		Writing: WritingConfig{
			OCRURL:   DefaultOCRURL,
			VocabURL: DefaultVocabURL,
		},
	}
}

func LoadConfig(scope Scope) (*Config, error) {
	path := scope.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	return &cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	path := scope.ConfigPath()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// NewEmbedder builds the configured embedding backend. The ollama backend
// talks to an OpenAI-compatible endpoint; the local backend loads a GGUF
// model in process, downloading it on first use.
func NewEmbedder(cfg EmbeddingsConfig) (Embedder, error) {
	switch cfg.Backend {
	case "", "ollama":
		opts := []RemoteOption{}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, WithEmbeddingModel(cfg.Model))
		}
		if cfg.Dimension > 0 {
			opts = append(opts, WithDimension(cfg.Dimension))
		}
		return NewRemoteEmbedder(opts...), nil

	case "local":
		cacheDir, err := DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		downloader := NewDownloader(cacheDir, os.Getenv("HF_TOKEN"))
		modelPath, err := downloader.EnsureModel(context.Background(), DefaultModelURL, DefaultModelFilename, nil)
		if err != nil {
			return nil, fmt.Errorf("ensure embedding model: %w", err)
		}
		dim := cfg.Dimension
		if dim <= 0 {
			dim = DefaultEmbeddingDim
		}
		return NewLocalEmbedder(modelPath, dim)

	default:
		return nil, fmt.Errorf("unsupported embeddings backend: %s", cfg.Backend)
	}
}
