package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to brain! Let's set up your knowledge base.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding backend.
	embedPrompt := promptui.Select{
		Label: "Select embedding backend",
		Items: []string{
			"openai — hosted API (needs OPENAI_API_KEY)",
			"ollama — local model",
		},
	}
	embedIdx, _, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding selection: %w", err)
	}
	if embedIdx == 1 {
		cfg.Embedding.Provider = ProviderOllama
		cfg.Embedding.Model = "nomic-embed-text"
	}

	modelPrompt := promptui.Prompt{
		Label:   "Embedding model",
		Default: cfg.Embedding.Model,
	}
	embedModel, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}
	cfg.Embedding.Model = embedModel
	if dims := EmbeddingDimensionsFor(embedModel); dims > 0 {
		cfg.Embedding.Dimensions = dims
	} else {
		dimsPrompt := promptui.Prompt{
			Label:   "Embedding dimensions",
			Default: fmt.Sprintf("%d", cfg.Embedding.Dimensions),
		}
		dimsStr, err := dimsPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("embedding dimensions: %w", err)
		}
		if _, err := fmt.Sscanf(dimsStr, "%d", &cfg.Embedding.Dimensions); err != nil {
			return nil, fmt.Errorf("embedding dimensions %q is not a number", dimsStr)
		}
	}

	// 2. Generation backend.
	llmPrompt := promptui.Select{
		Label: "Select generation backend",
		Items: []string{
			"local  — OpenAI-compatible server (mistral.rs, vLLM)",
			"openai — hosted API (needs OPENAI_API_KEY)",
			"ollama — local model",
		},
	}
	llmIdx, _, err := llmPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("generation selection: %w", err)
	}
	switch llmIdx {
	case 1:
		cfg.LLM.Provider = ProviderOpenAI
		cfg.LLM.Model = "gpt-4o-mini"
		cfg.LLM.BaseURL = ""
	case 2:
		cfg.LLM.Provider = ProviderOllama
		cfg.LLM.Model = "llama3"
		cfg.LLM.BaseURL = ""
	}

	llmModelPrompt := promptui.Prompt{
		Label:   "Generation model",
		Default: cfg.LLM.Model,
	}
	llmModel, err := llmModelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("generation model: %w", err)
	}
	cfg.LLM.Model = llmModel

	// 3. Database location.
	dbPrompt := promptui.Prompt{
		Label:   "Database path",
		Default: cfg.Storage.DatabasePath,
	}
	dbPath, err := dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	cfg.Storage.DatabasePath = dbPath

	// 4. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Sources.Exclude = append(cfg.Sources.Exclude, splitAndTrim(excludeStr)...)
	}

	if cfg.Embedding.Provider == ProviderOpenAI || cfg.LLM.Provider == ProviderOpenAI {
		if os.Getenv("OPENAI_API_KEY") == "" {
			fmt.Println("\nNote: Set OPENAI_API_KEY in your environment before indexing.")
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
