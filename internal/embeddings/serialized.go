package embeddings

import (
	"context"
	"sync"
)

// serializedEmbedder wraps an Embedder so that at most one embedding
// computation is in flight at a time. A loaded model owns a single compute
// device, and multiplexed concurrent use of one model context corrupts
// results; ingestion and query traffic therefore queue here with no
// priority between them.
type serializedEmbedder struct {
	inner Embedder
	mu    sync.Mutex
}

// Serialize returns an Embedder that queues concurrent Embed calls.
func Serialize(e Embedder) Embedder {
	return &serializedEmbedder{inner: e}
}

func (s *serializedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inner.Embed(ctx, texts)
}

func (s *serializedEmbedder) Dimensions() int { return s.inner.Dimensions() }

func (s *serializedEmbedder) Name() string { return s.inner.Name() }
