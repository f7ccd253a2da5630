package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/localbrain/brain/internal/embeddings"
	"github.com/localbrain/brain/internal/llm"
	"github.com/localbrain/brain/internal/vectorstore"
)

// DefaultMaxContextChars caps how much retrieved text goes into a
// generation prompt.
const DefaultMaxContextChars = 12000

const systemPrompt = "You are a helpful assistant answering questions about the user's " +
	"indexed documents and code. Answer using the provided context. When the " +
	"context does not contain the answer, say so instead of guessing."

// Citation names one retrieved chunk that contributed to an answer.
type Citation struct {
	FilePath   string  `json:"file_path"`
	Source     string  `json:"source"`
	Similarity float32 `json:"similarity"`
}

// QueryResponse is a generated answer plus the chunks it was grounded on.
// Sources lists only the chunks that actually fit in the prompt.
type QueryResponse struct {
	Answer  string     `json:"answer"`
	Sources []Citation `json:"sources,omitempty"`
}

// Retriever answers similarity searches and retrieval-augmented queries.
type Retriever struct {
	embedder        embeddings.Embedder
	store           vectorstore.Store
	client          llm.Client
	maxContextChars int
}

// NewRetriever creates a Retriever. client may be nil when only Search
// is needed; Query then fails with llm.ErrGenerationUnavailable.
func NewRetriever(embedder embeddings.Embedder, store vectorstore.Store, client llm.Client) *Retriever {
	return &Retriever{
		embedder:        embedder,
		store:           store,
		client:          client,
		maxContextChars: DefaultMaxContextChars,
	}
}

// SetMaxContextChars overrides the prompt context budget.
func (r *Retriever) SetMaxContextChars(n int) {
	if n >= 1 {
		r.maxContextChars = n
	}
}

// Search embeds the query and returns the most similar stored chunks.
// An empty store yields zero results, not an error.
func (r *Retriever) Search(ctx context.Context, query string, limit int) ([]vectorstore.SearchResult, error) {
	if limit < 1 {
		return nil, vectorstore.ErrInvalidLimit
	}

	vector, err := embeddings.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, vector, limit)
	if errors.Is(err, vectorstore.ErrEmptyStore) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Query runs Search and asks the generation backend to answer from the
// retrieved chunks. When nothing is retrieved, or no chunk fits the
// context budget, it falls back to answering the question without
// context. The response cites only the chunks actually in the prompt.
func (r *Retriever) Query(ctx context.Context, query string, limit int) (*QueryResponse, error) {
	if r.client == nil {
		return nil, fmt.Errorf("no generation client configured: %w", llm.ErrGenerationUnavailable)
	}

	results, err := r.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	included := r.fitContext(query, results)
	if len(included) == 0 {
		// No results, or even the top chunk overflows the budget.
		answer, err := r.client.Complete(ctx, query)
		if err != nil {
			return nil, err
		}
		return &QueryResponse{Answer: answer}, nil
	}

	var contexts []string
	var citations []Citation
	for i, res := range included {
		contexts = append(contexts, fmt.Sprintf("[Context %d - %s]:\n%s",
			i+1, res.Record.FilePath, res.Record.Content))
		citations = append(citations, Citation{
			FilePath:   res.Record.FilePath,
			Source:     res.Record.Source,
			Similarity: res.Similarity,
		})
	}

	userPrompt := fmt.Sprintf("%s\n\nQuestion: %s", strings.Join(contexts, "\n---\n"), query)

	answer, err := r.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	return &QueryResponse{Answer: answer, Sources: citations}, nil
}

// fitContext drops the lowest-ranked chunks until the retrieved text
// fits the budget. The question is never truncated; nil means not even
// the top chunk fits.
func (r *Retriever) fitContext(query string, results []vectorstore.SearchResult) []vectorstore.SearchResult {
	budget := r.maxContextChars - len(query)

	included := results
	for len(included) > 0 {
		var used int
		for _, res := range included {
			used += len(res.Record.Content)
		}
		if used <= budget {
			return included
		}
		included = included[:len(included)-1]
	}
	return nil
}
