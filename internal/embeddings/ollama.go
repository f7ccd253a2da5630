package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaEmbedder generates embeddings using a local Ollama instance. The
// instance holds one loaded model on one device; wrap it with Serialize
// before sharing it across ingestion and query traffic.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	maxChars   int
	httpClient *http.Client
}

// NewOllamaEmbedder creates a new Ollama embedder.
// model is the Ollama model name (e.g. "nomic-embed-text").
// dimensions is the output dimension count for the model.
// baseURL defaults to http://localhost:11434 if empty.
func NewOllamaEmbedder(model string, dimensions int, baseURL string, maxChars int) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaEmbedder{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		maxChars:   maxChars,
		httpClient: &http.Client{},
	}
}

func (e *OllamaEmbedder) Name() string {
	return "ollama/" + e.model
}

func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends all texts in one /api/embed call; Ollama accepts an input
// array and returns embeddings in the same order.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = truncate(text, e.maxChars)
	}

	resp, err := e.post(ctx, ollamaEmbedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, &EmbeddingError{Model: e.Name(), Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &EmbeddingError{
			Model: e.Name(),
			Err:   countMismatchErr(len(resp.Embeddings), len(texts)),
		}
	}

	results := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if len(emb) != e.dimensions {
			return nil, &EmbeddingError{
				Model: e.Name(),
				Err:   fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(emb), e.dimensions),
			}
		}
		results[i] = normalize(emb)
	}
	return results, nil
}

func (e *OllamaEmbedder) post(ctx context.Context, payload ollamaEmbedRequest) (*ollamaEmbedResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", e.baseURL, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return nil, fmt.Errorf("ollama status %d: %s", httpResp.StatusCode, bytes.TrimSpace(msg))
	}

	var resp ollamaEmbedResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func countMismatchErr(got, want int) error {
	return fmt.Errorf("returned %d embeddings, expected %d", got, want)
}
