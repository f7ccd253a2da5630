package config

import (
	"os"
	"path/filepath"
)

// DefaultExcludes are glob patterns excluded from ingestion by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// embeddingDimensions maps known embedding models to their output size.
var embeddingDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

// EmbeddingDimensionsFor returns the dimensionality of a known embedding
// model, or 0 when the model is unknown and dimensions must be configured
// explicitly.
func EmbeddingDimensionsFor(model string) int {
	return embeddingDimensions[model]
}

// DataDir returns the brain data directory: $BRAIN_HOME when set,
// otherwise ~/.brain.
func DataDir() string {
	if dir := os.Getenv("BRAIN_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".brain"
	}
	return filepath.Join(home, ".brain")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yml")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := DataDir()
	return &Config{
		Chunking: ChunkingConfig{
			Size:    512,
			Overlap: 50,
		},
		Embedding: EmbeddingConfig{
			Provider:   ProviderOpenAI,
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			MaxChars:   8000,
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(dataDir, "brain.db"),
			ReposDir:     filepath.Join(dataDir, "repos"),
		},
		LLM: LLMConfig{
			Provider:        ProviderLocal,
			Model:           "mistral-7b-instruct",
			BaseURL:         "http://localhost:8000/v1",
			MaxTokens:       2048,
			Temperature:     0.2,
			MaxContextChars: 12000,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Sources: SourcesConfig{
			Include:     []string{"**"},
			Exclude:     DefaultExcludes,
			MaxFileSize: 1 << 20,
		},
	}
}
