package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// DefaultMaxChars is the character ceiling applied to input text before it
// is sent to a model. It is enforced separately from the model's own token
// limit; the character cut happens first.
const DefaultMaxChars = 8000

// Embedder defines the interface for generating text embeddings.
// Implementations return L2-normalized vectors of a fixed dimensionality;
// callers never re-normalize.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// ErrInputTooLong indicates the input still exceeded the model's hard limit
// after the character ceiling was applied.
var ErrInputTooLong = errors.New("input exceeds model limit after truncation")

// EmbeddingError wraps a failure from an embedding model or its transport.
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding with %s: %v", e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, &EmbeddingError{Model: e.Name(), Err: errors.New("no embedding returned")}
	}
	return vecs[0], nil
}

// truncate cuts text to at most maxChars bytes without splitting a UTF-8
// sequence. maxChars <= 0 means the default ceiling.
func truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut]
}

// normalize scales vec to unit L2 norm in place and returns it.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
