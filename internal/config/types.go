package config

// ProviderType identifies an embedding or generation backend.
type ProviderType string

const (
	// ProviderOpenAI is the hosted OpenAI API.
	ProviderOpenAI ProviderType = "openai"
	// ProviderLocal is any OpenAI-compatible server (mistral.rs, vLLM).
	ProviderLocal ProviderType = "local"
	// ProviderOllama is a local Ollama server.
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level brain configuration, corresponding to config.yml.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Storage   StorageConfig   `yaml:"storage" koanf:"storage"`
	LLM       LLMConfig       `yaml:"llm" koanf:"llm"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Sources   SourcesConfig   `yaml:"sources" koanf:"sources"`
}

// ChunkingConfig controls how documents are split before embedding.
type ChunkingConfig struct {
	Size    int `yaml:"size" koanf:"size"`
	Overlap int `yaml:"overlap" koanf:"overlap"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	Provider   ProviderType `yaml:"provider" koanf:"provider"`
	Model      string       `yaml:"model" koanf:"model"`
	Dimensions int          `yaml:"dimensions" koanf:"dimensions"`
	BaseURL    string       `yaml:"base_url" koanf:"base_url"`
	MaxChars   int          `yaml:"max_chars" koanf:"max_chars"`
}

// StorageConfig locates the vector database and repository checkouts.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" koanf:"database_path"`
	ReposDir     string `yaml:"repos_dir" koanf:"repos_dir"`
}

// LLMConfig selects and tunes the generation backend.
type LLMConfig struct {
	Provider        ProviderType `yaml:"provider" koanf:"provider"`
	Model           string       `yaml:"model" koanf:"model"`
	BaseURL         string       `yaml:"base_url" koanf:"base_url"`
	MaxTokens       int          `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature     float32      `yaml:"temperature" koanf:"temperature"`
	MaxContextChars int          `yaml:"max_context_chars" koanf:"max_context_chars"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`
}

// SourcesConfig filters which files are ingested.
type SourcesConfig struct {
	Include     []string `yaml:"include" koanf:"include"`
	Exclude     []string `yaml:"exclude" koanf:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size" koanf:"max_file_size"`
}
