package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/localbrain/brain/internal/chunker"
	"github.com/localbrain/brain/internal/config"
	"github.com/localbrain/brain/internal/embeddings"
	"github.com/localbrain/brain/internal/llm"
	"github.com/localbrain/brain/internal/loader"
	"github.com/localbrain/brain/internal/pipeline"
	"github.com/localbrain/brain/internal/vectorstore"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `brain init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedder creates an embeddings.Embedder based on config. Local
// backends are serialized: one model instance, one computation at a time.
func createEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.Embedding.Model),
			cfg.Embedding.BaseURL, cfg.Embedding.MaxChars), nil
	case config.ProviderOllama:
		e := embeddings.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimensions,
			cfg.Embedding.BaseURL, cfg.Embedding.MaxChars)
		return embeddings.Serialize(e), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Embedding.Provider)
	}
}

// openStore opens the vector database with the embedder's dimensionality.
func openStore(cfg *config.Config, embedder embeddings.Embedder) (vectorstore.Store, error) {
	store, err := vectorstore.Open(cfg.Storage.DatabasePath, embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	return store, nil
}

// createLLMClient creates the generation client based on config settings.
func createLLMClient(cfg *config.Config) (llm.Client, error) {
	return llm.NewClient(string(cfg.LLM.Provider), llm.Options{
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
}

// newIngestor wires the chunker, embedder and store per config.
func newIngestor(cfg *config.Config, embedder embeddings.Embedder, store vectorstore.Store) *pipeline.Ingestor {
	return pipeline.NewIngestor(chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap), embedder, store)
}

// newRetriever wires search and generation per config.
func newRetriever(cfg *config.Config, embedder embeddings.Embedder, store vectorstore.Store, client llm.Client) *pipeline.Retriever {
	r := pipeline.NewRetriever(embedder, store, client)
	r.SetMaxContextChars(cfg.LLM.MaxContextChars)
	return r
}

// loaderOptions builds file filters from config.
func loaderOptions(cfg *config.Config) loader.Options {
	return loader.Options{
		Include:     cfg.Sources.Include,
		Exclude:     cfg.Sources.Exclude,
		MaxFileSize: cfg.Sources.MaxFileSize,
	}
}

// printReport summarizes an ingestion run on stdout.
func printReport(report *pipeline.Report) {
	fmt.Printf("Indexed %d documents from %d files in %s (run %s)\n",
		report.DocumentsIndexed, report.FilesProcessed,
		report.Duration.Round(time.Millisecond), report.RunID)
	if len(report.FailedFiles) > 0 {
		fmt.Printf("%d files failed:\n", len(report.FailedFiles))
		for _, f := range report.FailedFiles {
			fmt.Printf("  %s: %s\n", f.Path, f.Reason)
		}
	}
}
