package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. BRAIN_LLM__MODEL maps to llm.model,
// double underscore separating the section from the key.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("BRAIN_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "BRAIN_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path, creating
// parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validEmbeddingProviders is the set of recognized embedding backends.
var validEmbeddingProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// validLLMProviders is the set of recognized generation backends.
var validLLMProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderLocal:  true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Chunking.Size < 1 {
		return fmt.Errorf("chunking.size must be at least 1")
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must be non-negative")
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap %d must be smaller than chunking.size %d",
			c.Chunking.Overlap, c.Chunking.Size)
	}

	if !validEmbeddingProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding.provider %q: must be one of openai, ollama", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions < 1 {
		return fmt.Errorf("embedding.dimensions must be at least 1")
	}
	if c.Embedding.MaxChars < 1 {
		return fmt.Errorf("embedding.max_chars must be at least 1")
	}

	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}

	if !validLLMProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm.provider %q: must be one of openai, local, ollama", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.MaxContextChars < 1 {
		return fmt.Errorf("llm.max_context_chars must be at least 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Sources.MaxFileSize < 0 {
		return fmt.Errorf("sources.max_file_size must be non-negative")
	}

	return nil
}
