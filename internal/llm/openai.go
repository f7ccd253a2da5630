package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// defaultTimeout bounds every generation request; callers never block
// indefinitely on a wedged backend.
const defaultTimeout = 60 * time.Second

// OpenAIClient implements Client against any OpenAI-compatible chat
// endpoint. With the default base URL it talks to OpenAI; pointing
// BaseURL at a local server (mistral.rs, vLLM, llama.cpp) works the
// same way.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// OpenAIOptions configures an OpenAIClient. Model is required; the
// rest fall back to sensible defaults.
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// NewOpenAIClient creates a client for an OpenAI-compatible backend.
func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	var apiMessages []openai.ChatCompletionMessage
	for _, msg := range messages {
		apiMessages = append(apiMessages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    apiMessages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from %s", ErrGenerationUnavailable, c.model)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
}

// HealthCheck lists the backend's models, the cheapest request an
// OpenAI-compatible server answers.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	return nil
}
