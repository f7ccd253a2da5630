package vectorstore

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func unit(vals ...float32) []float32 {
	var sum float64
	for _, v := range vals {
		sum += float64(v) * float64(v)
	}
	norm := float32(math.Sqrt(sum))
	if norm == 0 {
		return vals
	}
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = v / norm
	}
	return out
}

func testRecord(source, path string, idx int, emb []float32) Record {
	return Record{
		ID:         DocumentID(source, path, idx),
		Content:    "chunk content",
		Source:     source,
		SourceType: SourceLocal,
		FilePath:   path,
		ChunkIndex: idx,
		CreatedAt:  time.Now(),
		Embedding:  emb,
	}
}

func TestInsertAndCount(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(3)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	records := []Record{
		testRecord("local:/notes", "a.md", 0, unit(1, 0, 0)),
		testRecord("local:/notes", "a.md", 1, unit(0, 1, 0)),
	}

	n, err := store.Insert(ctx, records)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n != 2 {
		t.Errorf("Insert returned %d, want 2", n)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestSearchOrdering(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	// Angles from the x axis: doc2 closest to the query, doc3 farthest.
	records := []Record{
		testRecord("s", "doc1", 0, unit(1, 1)),
		testRecord("s", "doc2", 0, unit(1, 0.2)),
		testRecord("s", "doc3", 0, unit(0, 1)),
	}
	if _, err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	results, err := store.Search(ctx, unit(1, 0), 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantOrder := []string{"doc2", "doc1", "doc3"}
	for i, want := range wantOrder {
		if results[i].Record.FilePath != want {
			t.Errorf("result %d = %s, want %s", i, results[i].Record.FilePath, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("results not in non-increasing similarity order")
		}
	}
}

func TestSearchTieBreakInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	// Identical vectors: order must follow insertion.
	same := unit(1, 1)
	records := []Record{
		testRecord("s", "first", 0, same),
		testRecord("s", "second", 0, same),
		testRecord("s", "third", 0, same),
	}
	if _, err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	results, err := store.Search(ctx, same, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if results[i].Record.FilePath != want {
			t.Errorf("tie position %d = %s, want %s", i, results[i].Record.FilePath, want)
		}
	}
}

func TestSearchLimitValidation(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	for _, limit := range []int{0, -1} {
		_, err := store.Search(ctx, unit(1, 0), limit)
		if !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("Search(limit=%d) error = %v, want ErrInvalidLimit", limit, err)
		}
		var qe *QueryError
		if !errors.As(err, &qe) {
			t.Errorf("Search(limit=%d) error is not a QueryError", limit)
		}
	}
}

func TestSearchEmptyStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	_, err = store.Search(ctx, unit(1, 0), 5)
	if !errors.Is(err, ErrEmptyStore) {
		t.Errorf("Search on empty store = %v, want ErrEmptyStore", err)
	}
}

func TestSearchLimitTruncation(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	var records []Record
	for i := 0; i < 10; i++ {
		records = append(records, testRecord("s", "f", i, unit(1, float32(i))))
	}
	if _, err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	results, err := store.Search(ctx, unit(1, 0), 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("got %d results, want 4", len(results))
	}
}

func TestInsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(3)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	_, err = store.Insert(ctx, []Record{testRecord("s", "f", 0, unit(1, 0))})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Insert with wrong dims = %v, want ErrDimensionMismatch", err)
	}

	// The failed batch must not have been partially applied.
	count, _ := store.Count(ctx)
	if count != 0 {
		t.Errorf("Count after failed insert = %d, want 0", count)
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(3)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	if _, err := store.Insert(ctx, []Record{testRecord("s", "f", 0, unit(1, 0, 0))}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err = store.Search(ctx, unit(1, 0), 5)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Search with wrong query dims = %v, want ErrDimensionMismatch", err)
	}
}

func TestDeleteBySource(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	records := []Record{
		testRecord("local:/a", "x.md", 0, unit(1, 0)),
		testRecord("local:/a", "x.md", 1, unit(0, 1)),
		testRecord("local:/b", "y.md", 0, unit(1, 1)),
	}
	if _, err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	deleted, err := store.DeleteBySource(ctx, "local:/a")
	if err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d, want 2", deleted)
	}

	count, _ := store.Count(ctx)
	if count != 1 {
		t.Errorf("Count after delete = %d, want 1", count)
	}

	sources, err := store.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	for _, s := range sources {
		if s.Source == "local:/a" {
			t.Error("deleted source still listed")
		}
	}
}

func TestDeleteMissingSourceIsNoop(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	deleted, err := store.DeleteBySource(ctx, "local:/nope")
	if err != nil {
		t.Errorf("DeleteBySource on missing source: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted %d, want 0", deleted)
	}
}

func TestListSourcesCounts(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	records := []Record{
		testRecord("github:acme/widgets", "a.go", 0, unit(1, 0)),
		testRecord("github:acme/widgets", "a.go", 1, unit(0, 1)),
		testRecord("github:acme/widgets", "b.go", 0, unit(1, 1)),
		testRecord("local:/docs", "readme.md", 0, unit(1, 2)),
	}
	if _, err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	sources, err := store.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}

	want := map[string]int{"github:acme/widgets": 3, "local:/docs": 1}
	for _, s := range sources {
		if want[s.Source] != s.Documents {
			t.Errorf("source %s has %d documents, want %d", s.Source, s.Documents, want[s.Source])
		}
	}
}

func TestReinsertAppendsDuplicates(t *testing.T) {
	ctx := context.Background()
	store, err := OpenMemory(2)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer store.Close()

	records := []Record{
		testRecord("local:/n", "notes.md", 0, unit(1, 0)),
		testRecord("local:/n", "notes.md", 1, unit(0, 1)),
	}
	if _, err := store.Insert(ctx, records); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if _, err := store.Insert(ctx, records); err != nil {
		t.Fatalf("second Insert: %v", err)
	}

	// Same ids append; the store does not deduplicate.
	count, _ := store.Count(ctx)
	if count != 4 {
		t.Errorf("Count after re-insert = %d, want 4", count)
	}
}

func TestDocumentIDStability(t *testing.T) {
	a := DocumentID("github:acme/widgets", "pkg/a.go", 3)
	b := DocumentID("github:acme/widgets", "pkg/a.go", 3)
	if a != b {
		t.Error("DocumentID is not stable for identical inputs")
	}
	if a == DocumentID("github:acme/widgets", "pkg/a.go", 4) {
		t.Error("DocumentID ignores chunk index")
	}
	if a == DocumentID("github:acme/other", "pkg/a.go", 3) {
		t.Error("DocumentID ignores source")
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "brain.db")

	store, err := Open(path, 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Insert(ctx, []Record{testRecord("s", "f.md", 0, unit(1, 0))}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	store.Close()

	reopened, err := Open(path, 2)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("Count after reopen = %d, want 1", count)
	}
}

func TestOpenRejectsDimensionChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.db")

	store, err := Open(path, 4)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	_, err = Open(path, 8)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("reopen with different dims = %v, want ErrDimensionMismatch", err)
	}
}
