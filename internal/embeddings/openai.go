package embeddings

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const maxBatchSize = 100

// OpenAIModel represents a supported OpenAI embedding model.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
)

func (m OpenAIModel) dimensions() int {
	switch m {
	case ModelTextEmbedding3Small:
		return 1536
	case ModelTextEmbedding3Large:
		return 3072
	default:
		return 1536
	}
}

// OpenAIEmbedder generates embeddings using OpenAI's API, or any
// OpenAI-compatible endpoint when baseURL is set.
type OpenAIEmbedder struct {
	client   *openai.Client
	model    OpenAIModel
	maxChars int
}

// NewOpenAIEmbedder creates a new OpenAI embedder. baseURL may be empty for
// the public API; maxChars <= 0 uses DefaultMaxChars.
func NewOpenAIEmbedder(apiKey string, model OpenAIModel, baseURL string, maxChars int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		maxChars: maxChars,
	}
}

func (e *OpenAIEmbedder) Name() string {
	return string(e.model)
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.model.dimensions()
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Character ceiling first; the model's token limit is enforced by the
	// API itself and surfaces as ErrInputTooLong below.
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = truncate(t, e.maxChars)
	}

	allEmbeddings := make([][]float32, 0, len(input))

	for i := 0; i < len(input); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(input) {
			end = len(input)
		}
		batch := input[i:end]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isContextLengthErr(err) {
				return nil, &EmbeddingError{Model: e.Name(), Err: ErrInputTooLong}
			}
			return nil, &EmbeddingError{Model: e.Name(), Err: err}
		}

		if len(resp.Data) != len(batch) {
			return nil, &EmbeddingError{
				Model: e.Name(),
				Err:   countMismatchErr(len(resp.Data), len(batch)),
			}
		}

		for _, emb := range resp.Data {
			allEmbeddings = append(allEmbeddings, normalize(emb.Embedding))
		}
	}

	return allEmbeddings, nil
}

// isContextLengthErr detects the API's oversized-input failure mode.
func isContextLengthErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "maximum context length") ||
		strings.Contains(msg, "context_length_exceeded")
}
