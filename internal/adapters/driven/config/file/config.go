// Package file loads and persists docsearch configuration as TOML.
// Configuration lives in ~/.docsearch/config.toml unless overridden.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docsearch-cli/internal/chunker"
	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

// Embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config is the full docsearch configuration.
type Config struct {
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Storage   StorageConfig   `toml:"storage"`
	Search    SearchConfig    `toml:"search"`
}

// ChunkingConfig controls how extracted text is segmented.
type ChunkingConfig struct {
	// MaxTokens is the token ceiling per segment.
	MaxTokens int `toml:"max_tokens"`

	// OverlapTokens is how many trailing tokens each segment shares
	// with the next one.
	OverlapTokens int `toml:"overlap_tokens"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model name. Empty selects the provider
	// default.
	Model string `toml:"model"`

	// Dimensions is the embedding vector size. Zero selects the
	// provider default for the model.
	Dimensions int `toml:"dimensions"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`
}

// StorageConfig controls where the metadata store and vector index live.
type StorageConfig struct {
	// DataDir holds metadata.db and vectors.idx. Empty selects
	// ~/.docsearch/data.
	DataDir string `toml:"data_dir"`
}

// SearchConfig holds search defaults, overridable per query via flags.
type SearchConfig struct {
	MaxResults    int     `toml:"max_results"`
	MinSimilarity float64 `toml:"min_similarity"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxTokens:     chunker.DefaultMaxTokens,
			OverlapTokens: chunker.DefaultOverlapTokens,
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderOllama,
		},
		Search: SearchConfig{
			MaxResults:    10,
			MinSimilarity: 0,
		},
	}
}

// DefaultDir returns the docsearch config directory (~/.docsearch).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".docsearch"), nil
}

// Load reads config.toml from configDir, falling back to defaults for a
// missing file. If configDir is empty the default directory is used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to config.toml in configDir, creating
// the directory if needed.
func Save(cfg *Config, configDir string) error {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(filepath.Join(configDir, "config.toml"), data, 0600)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("%w: chunking.max_tokens must be positive", domain.ErrInvalidInput)
	}
	if c.Chunking.OverlapTokens < 0 {
		return fmt.Errorf("%w: chunking.overlap_tokens must not be negative", domain.ErrInvalidInput)
	}
	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, c.Embedding.Provider)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("%w: search.max_results must be positive", domain.ErrInvalidInput)
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("%w: search.min_similarity must be within [0, 1]", domain.ErrInvalidInput)
	}
	return nil
}

// DataDir resolves the storage directory, defaulting to
// ~/.docsearch/data.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}
