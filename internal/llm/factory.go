package llm

import (
	"fmt"
	"os"
)

// Options selects and tunes a chat backend.
type Options struct {
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// NewClient creates a chat client based on the given provider type.
// Supported provider types: "openai", "local", "ollama". "local" is any
// OpenAI-compatible server (mistral.rs, vLLM, llama.cpp) and needs no
// API key.
func NewClient(providerType string, opts Options) (Client, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIClient(OpenAIOptions{
			APIKey:      apiKey,
			Model:       opts.Model,
			BaseURL:     opts.BaseURL,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		}), nil

	case "local":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8000/v1"
		}
		return NewOpenAIClient(OpenAIOptions{
			APIKey:      "unused",
			Model:       opts.Model,
			BaseURL:     baseURL,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		}), nil

	case "ollama":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_HOST")
		}
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return NewOllamaClient(baseURL, opts.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
