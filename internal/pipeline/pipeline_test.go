package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/localbrain/brain/internal/chunker"
	"github.com/localbrain/brain/internal/llm"
	"github.com/localbrain/brain/internal/vectorstore"
)

// mockEmbedder produces deterministic unit vectors from a text hash.
type mockEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  func(text string) bool
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.fail != nil && m.fail(text) {
			return nil, fmt.Errorf("embedding backend rejected input")
		}
		h := fnv.New32a()
		h.Write([]byte(text))
		seed := h.Sum32()

		vec := make([]float32, 4)
		var norm float64
		for j := range vec {
			vec[j] = float32((seed>>(j*8))&0xFF) + 1
			norm += float64(vec[j]) * float64(vec[j])
		}
		scale := float32(1 / math.Sqrt(norm))
		for j := range vec {
			vec[j] *= scale
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return 4 }
func (m *mockEmbedder) Name() string    { return "mock" }

// fakeClient records the last conversation and returns a canned answer.
type fakeClient struct {
	mu           sync.Mutex
	lastMessages []llm.Message
	lastPrompt   string
	answer       string
	err          error
}

func (f *fakeClient) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeClient) HealthCheck(ctx context.Context) error { return f.err }
func (f *fakeClient) Name() string                          { return "fake" }

func newTestStore(t *testing.T) vectorstore.Store {
	t.Helper()
	store, err := vectorstore.OpenMemory(4)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func words(n int, prefix string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ")
}

func TestIndexDocumentsChunksAndStores(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ing := NewIngestor(chunker.New(512, 50), &mockEmbedder{}, store)

	// 600-word paragraph splits into two windows; the 200-word paragraph
	// stays whole.
	text := words(600, "alpha") + "\n\n" + words(200, "beta")
	report, err := ing.IndexDocuments(ctx, "local:/notes", vectorstore.SourceLocal, []File{
		{Path: "notes.md", Text: text, Kind: chunker.KindProse},
	})
	if err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}

	if report.RunID == "" {
		t.Error("report has no run id")
	}
	if report.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", report.FilesProcessed)
	}
	if report.DocumentsIndexed != 3 {
		t.Errorf("DocumentsIndexed = %d, want 3", report.DocumentsIndexed)
	}
	if len(report.FailedFiles) != 0 {
		t.Errorf("unexpected failures: %v", report.FailedFiles)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("store Count = %d, want 3", count)
	}
}

func TestIndexDocumentsReingestAppends(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ing := NewIngestor(chunker.New(512, 50), &mockEmbedder{}, store)

	files := []File{{Path: "a.md", Text: words(100, "w"), Kind: chunker.KindProse}}
	for i := 0; i < 2; i++ {
		if _, err := ing.IndexDocuments(ctx, "local:/a", vectorstore.SourceLocal, files); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	count, _ := store.Count(ctx)
	if count != 2 {
		t.Errorf("Count after double ingest = %d, want 2", count)
	}
}

func TestIndexDocumentsEmbeddingFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	emb := &mockEmbedder{fail: func(text string) bool {
		return strings.Contains(text, "poison")
	}}
	ing := NewIngestor(chunker.New(512, 50), emb, store)
	ing.SetBatchSize(1)

	report, err := ing.IndexDocuments(ctx, "local:/mix", vectorstore.SourceLocal, []File{
		{Path: "good.md", Text: "plain healthy text", Kind: chunker.KindProse},
		{Path: "bad.md", Text: "poison text", Kind: chunker.KindProse},
		{Path: "also-good.md", Text: "more healthy text", Kind: chunker.KindProse},
	})
	if err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}

	if report.DocumentsIndexed != 2 {
		t.Errorf("DocumentsIndexed = %d, want 2", report.DocumentsIndexed)
	}
	if len(report.FailedFiles) != 1 {
		t.Fatalf("got %d failed files, want 1", len(report.FailedFiles))
	}
	if report.FailedFiles[0].Path != "bad.md" {
		t.Errorf("failed file = %s, want bad.md", report.FailedFiles[0].Path)
	}
	if !strings.Contains(report.FailedFiles[0].Reason, "embed") {
		t.Errorf("failure reason %q does not name the embed stage", report.FailedFiles[0].Reason)
	}

	count, _ := store.Count(ctx)
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestIndexDocumentsHonoursCancellation(t *testing.T) {
	store := newTestStore(t)
	ing := NewIngestor(chunker.New(512, 50), &mockEmbedder{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := ing.IndexDocuments(ctx, "local:/x", vectorstore.SourceLocal, []File{
		{Path: "a.md", Text: "some text", Kind: chunker.KindProse},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if report == nil {
		t.Fatal("expected a report even on cancellation")
	}
	if report.DocumentsIndexed != 0 {
		t.Errorf("DocumentsIndexed = %d, want 0", report.DocumentsIndexed)
	}
}

func TestIndexDocumentsReportsProgress(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ing := NewIngestor(chunker.New(512, 50), &mockEmbedder{}, store)

	var seen []string
	ing.SetProgressFunc(func(processed, total int, path string) {
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
		seen = append(seen, path)
	})

	_, err := ing.IndexDocuments(ctx, "local:/p", vectorstore.SourceLocal, []File{
		{Path: "one.md", Text: "first", Kind: chunker.KindProse},
		{Path: "two.md", Text: "second", Kind: chunker.KindProse},
	})
	if err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}

	if len(seen) != 2 || seen[0] != "one.md" || seen[1] != "two.md" {
		t.Errorf("progress paths = %v, want [one.md two.md]", seen)
	}
}

func TestSearchEmptyStoreReturnsNoResults(t *testing.T) {
	store := newTestStore(t)
	r := NewRetriever(&mockEmbedder{}, store, nil)

	results, err := r.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty store, want 0", len(results))
	}
}

func TestSearchInvalidLimit(t *testing.T) {
	store := newTestStore(t)
	r := NewRetriever(&mockEmbedder{}, store, nil)

	_, err := r.Search(context.Background(), "anything", 0)
	if !errors.Is(err, vectorstore.ErrInvalidLimit) {
		t.Errorf("err = %v, want ErrInvalidLimit", err)
	}
}

func ingestSample(t *testing.T, store vectorstore.Store) {
	t.Helper()
	ing := NewIngestor(chunker.New(512, 50), &mockEmbedder{}, store)
	_, err := ing.IndexDocuments(context.Background(), "local:/docs", vectorstore.SourceLocal, []File{
		{Path: "setup.md", Text: "install the tool with the package manager", Kind: chunker.KindProse},
		{Path: "usage.md", Text: "run the binary against a directory", Kind: chunker.KindProse},
	})
	if err != nil {
		t.Fatalf("ingest sample: %v", err)
	}
}

func TestQueryBuildsContextPrompt(t *testing.T) {
	store := newTestStore(t)
	ingestSample(t, store)

	client := &fakeClient{answer: "generated answer"}
	r := NewRetriever(&mockEmbedder{}, store, client)

	resp, err := r.Query(context.Background(), "how do I install it?", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Answer != "generated answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("got %d citations, want 2", len(resp.Sources))
	}

	if len(client.lastMessages) != 2 {
		t.Fatalf("got %d messages, want system + user", len(client.lastMessages))
	}
	user := client.lastMessages[1].Content
	if !strings.Contains(user, "[Context 1 - ") {
		t.Error("prompt is missing the first context tag")
	}
	if !strings.Contains(user, "\n---\n") {
		t.Error("prompt is missing the context separator")
	}
	if !strings.Contains(user, "Question: how do I install it?") {
		t.Error("prompt is missing the question")
	}
}

func TestQueryDropsLowestRankedOverBudget(t *testing.T) {
	store := newTestStore(t)
	ingestSample(t, store)

	client := &fakeClient{answer: "short"}
	r := NewRetriever(&mockEmbedder{}, store, client)
	r.SetMaxContextChars(60)

	resp, err := r.Query(context.Background(), "usage?", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(resp.Sources) != 1 {
		t.Errorf("got %d citations, want 1 after budget trim", len(resp.Sources))
	}
}

func TestQueryFallsBackWithoutResults(t *testing.T) {
	store := newTestStore(t)

	client := &fakeClient{answer: "general knowledge answer"}
	r := NewRetriever(&mockEmbedder{}, store, client)

	resp, err := r.Query(context.Background(), "what is Go?", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Answer != "general knowledge answer" {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("fallback answer must carry no citations, got %d", len(resp.Sources))
	}
	if client.lastPrompt != "what is Go?" {
		t.Errorf("fallback prompt = %q, want the bare question", client.lastPrompt)
	}
}

func TestQueryWithoutClientUnavailable(t *testing.T) {
	store := newTestStore(t)
	ingestSample(t, store)

	r := NewRetriever(&mockEmbedder{}, store, nil)

	_, err := r.Query(context.Background(), "anything", 2)
	if !errors.Is(err, llm.ErrGenerationUnavailable) {
		t.Errorf("Query err = %v, want ErrGenerationUnavailable", err)
	}

	results, err := r.Search(context.Background(), "anything", 2)
	if err != nil {
		t.Fatalf("Search without client: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search returned %d results, want 2", len(results))
	}
}

func TestQueryOversizedQuestionSkipsContext(t *testing.T) {
	store := newTestStore(t)
	ingestSample(t, store)

	client := &fakeClient{answer: "short"}
	r := NewRetriever(&mockEmbedder{}, store, client)
	r.SetMaxContextChars(10)

	question := "a question much longer than the whole context allowance"
	resp, err := r.Query(context.Background(), question, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("got %d citations, want none when no chunk fits", len(resp.Sources))
	}
	if client.lastPrompt != question {
		t.Errorf("prompt = %q, want the bare question", client.lastPrompt)
	}
}

func TestQueryGenerationDownSearchStillWorks(t *testing.T) {
	store := newTestStore(t)
	ingestSample(t, store)

	client := &fakeClient{err: llm.ErrGenerationUnavailable}
	r := NewRetriever(&mockEmbedder{}, store, client)

	_, err := r.Query(context.Background(), "anything", 2)
	if !errors.Is(err, llm.ErrGenerationUnavailable) {
		t.Errorf("Query err = %v, want ErrGenerationUnavailable", err)
	}

	results, err := r.Search(context.Background(), "anything", 2)
	if err != nil {
		t.Fatalf("Search after generation failure: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search returned %d results, want 2", len(results))
	}
}
