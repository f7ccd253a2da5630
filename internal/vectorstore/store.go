package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SourceType identifies where a document was ingested from.
type SourceType string

const (
	SourceGitHub SourceType = "github"
	SourceLocal  SourceType = "local"
)

// Record is a persisted chunk with provenance and its embedding. Records
// are never mutated in place; they are removed only by DeleteBySource.
// Re-inserting the same source without deleting it first appends duplicate
// rows with the same derived id — callers own the delete-then-reindex
// cycle.
type Record struct {
	ID         string
	Content    string
	Source     string
	SourceType SourceType
	FilePath   string
	ChunkIndex int
	CreatedAt  time.Time
	Embedding  []float32
}

// SearchResult pairs a record with its cosine similarity to the query.
type SearchResult struct {
	Record     Record
	Similarity float32
}

// SourceInfo reports one distinct source and its document count.
type SourceInfo struct {
	Source    string `json:"source"`
	Documents int    `json:"documents"`
}

// Store is the persistent table of document records with similarity search.
// Readers and writers may run concurrently; an insert is not guaranteed to
// be visible to a search issued from another caller before the insert's
// transaction commits.
type Store interface {
	// Insert adds records and returns how many were written. The batch is
	// applied in one transaction. Records whose embedding dimensionality
	// differs from the store's fail the batch with ErrDimensionMismatch.
	Insert(ctx context.Context, records []Record) (int, error)

	// Search returns up to limit records ordered by descending cosine
	// similarity; ties keep insertion order. limit < 1 fails with
	// ErrInvalidLimit, an empty store with ErrEmptyStore.
	Search(ctx context.Context, query []float32, limit int) ([]SearchResult, error)

	// DeleteBySource removes all records for the given source and returns
	// the number deleted; a missing source deletes zero rows without error.
	DeleteBySource(ctx context.Context, source string) (int, error)

	// ListSources returns the distinct sources with per-source counts.
	ListSources(ctx context.Context) ([]SourceInfo, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// Dimensions returns the embedding dimensionality fixed at creation.
	Dimensions() int

	Close() error
}

// DocumentID derives the deterministic record id from provenance. Two
// ingestion runs over the same (source, filePath, chunkIndex) produce the
// same id regardless of timestamps.
func DocumentID(source, filePath string, chunkIndex int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d", source, filePath, chunkIndex)
	return hex.EncodeToString(h.Sum(nil))
}
