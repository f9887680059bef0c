// Package cli implements the docsearch command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/docsearch-cli/internal/chunker"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch-cli/internal/core/services"
	"github.com/custodia-labs/docsearch-cli/internal/logger"
	"github.com/custodia-labs/docsearch-cli/internal/parsers"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by wireServices, or injected directly in tests.
var (
	documentService driving.DocumentService
	searcher        driving.Searcher
	ingestor        driving.Ingestor
	parserRegistry  driven.ParserRegistry
	appConfig       *file.Config
)

// closers tears down wired services after Execute, most recent first.
var closers []func()

var (
	verboseFlag   bool
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "Semantic document search from your terminal",
	Long: `docsearch ingests PDF, DOCX and plain text documents, embeds their
content and answers natural-language queries with the most similar
passages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if !commandNeedsServices(cmd) || documentService != nil {
			return nil
		}
		return wireServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "config directory (default ~/.docsearch)")
}

// Execute runs the CLI and tears down wired services afterwards.
func Execute() error {
	defer shutdown()
	return rootCmd.Execute()
}

// commandNeedsServices reports whether the command touches the pipeline.
func commandNeedsServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete", "__completeNoDesc":
		return false
	}
	return true
}

// wireServices builds the full pipeline from configuration.
func wireServices() error {
	cfg, err := file.Load(configDirFlag)
	if err != nil {
		return err
	}
	appConfig = cfg

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	closers = append(closers, func() { _ = store.Close() })

	index, err := flat.New(filepath.Join(dataDir, "vectors.idx"), embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	closers = append(closers, func() { _ = index.Close() })

	indexer := services.NewIndexer(store, index)
	if err := indexer.ValidateConsistency(context.Background()); err != nil {
		return fmt.Errorf("startup check failed: %w (remove %s and re-add your documents to rebuild)",
			err, dataDir)
	}

	tokenizer, err := chunker.NewTiktokenTokenizer()
	if err != nil {
		return fmt.Errorf("initialise tokenizer: %w", err)
	}
	chk := chunker.New(tokenizer,
		chunker.WithMaxTokens(cfg.Chunking.MaxTokens),
		chunker.WithOverlapTokens(cfg.Chunking.OverlapTokens),
	)

	coordinator := services.NewIngestionCoordinator(store, embedder, chk, indexer)
	closers = append(closers, coordinator.Stop)

	documentService = services.NewDocService(store, index, indexer)
	searcher = services.NewSearchService(store, index, embedder)
	ingestor = coordinator
	parserRegistry = parsers.NewDefaultRegistry()
	return nil
}

// buildEmbedder selects the embedding provider from configuration.
func buildEmbedder(cfg *file.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case file.ProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case file.ProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// shutdown runs registered closers, most recent first.
func shutdown() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}
