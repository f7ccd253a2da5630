package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/localbrain/brain/internal/chunker"
	"github.com/localbrain/brain/internal/embeddings"
	"github.com/localbrain/brain/internal/vectorstore"
)

// DefaultBatchSize is how many chunks are embedded and inserted per batch.
const DefaultBatchSize = 100

// ProgressFunc reports ingestion progress after each file is handled.
type ProgressFunc func(processed, total int, path string)

// File is one unit of ingestable content, already read into memory.
type File struct {
	Path string
	Text string
	Kind chunker.Kind
}

// FileFailure names a file that could not be fully indexed and why.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes a single ingestion run. A run with failures is still
// a partial success: every batch that embedded cleanly is persisted.
type Report struct {
	RunID            string        `json:"run_id"`
	Source           string        `json:"source"`
	FilesProcessed   int           `json:"files_processed"`
	DocumentsIndexed int           `json:"documents_indexed"`
	FailedFiles      []FileFailure `json:"failed_files,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// Ingestor drives the chunk -> embed -> store workflow for one source.
type Ingestor struct {
	chunker    *chunker.Chunker
	embedder   embeddings.Embedder
	store      vectorstore.Store
	batchSize  int
	onProgress ProgressFunc
}

// NewIngestor creates an Ingestor with the default batch size.
func NewIngestor(ch *chunker.Chunker, embedder embeddings.Embedder, store vectorstore.Store) *Ingestor {
	return &Ingestor{
		chunker:   ch,
		embedder:  embedder,
		store:     store,
		batchSize: DefaultBatchSize,
	}
}

// SetBatchSize overrides the embedding batch size.
func (ing *Ingestor) SetBatchSize(n int) {
	if n >= 1 {
		ing.batchSize = n
	}
}

// SetProgressFunc sets the progress callback.
func (ing *Ingestor) SetProgressFunc(fn ProgressFunc) {
	ing.onProgress = fn
}

// pending is a chunk waiting for its embedding, tagged with the file it
// came from so batch failures can be attributed.
type pending struct {
	record vectorstore.Record
	text   string
	path   string
}

// IndexDocuments chunks every file, embeds the chunks in batches and
// inserts them under the given source name. An embedding or storage
// failure fails only the files in that batch; the rest of the run
// continues. Cancellation is honoured between batches.
func (ing *Ingestor) IndexDocuments(ctx context.Context, source string, sourceType vectorstore.SourceType, files []File) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:  uuid.NewString(),
		Source: source,
	}

	total := len(files)
	var batch []pending
	failedPaths := make(map[string]bool)

	failBatch := func(prefix string, err error) {
		for _, p := range batch {
			if failedPaths[p.path] {
				continue
			}
			failedPaths[p.path] = true
			report.FailedFiles = append(report.FailedFiles, FileFailure{
				Path:   p.path,
				Reason: prefix + ": " + err.Error(),
			})
		}
	}

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.text
		}

		vectors, err := ing.embedder.Embed(ctx, texts)
		if err != nil {
			failBatch("embed", err)
			batch = batch[:0]
			return nil
		}

		records := make([]vectorstore.Record, len(batch))
		for i, p := range batch {
			p.record.Embedding = vectors[i]
			records[i] = p.record
		}

		n, err := ing.store.Insert(ctx, records)
		if err != nil {
			failBatch("store", err)
			batch = batch[:0]
			return nil
		}

		report.DocumentsIndexed += n
		batch = batch[:0]
		return nil
	}

	for i, f := range files {
		chunks := ing.chunker.Chunk(f.Text, f.Kind)
		now := time.Now().UTC()
		for _, c := range chunks {
			batch = append(batch, pending{
				record: vectorstore.Record{
					ID:         vectorstore.DocumentID(source, f.Path, c.Index),
					Content:    c.Text,
					Source:     source,
					SourceType: sourceType,
					FilePath:   f.Path,
					ChunkIndex: c.Index,
					CreatedAt:  now,
				},
				text: c.Text,
				path: f.Path,
			})

			if len(batch) >= ing.batchSize {
				if err := flush(); err != nil {
					report.Duration = time.Since(start)
					return report, err
				}
			}
		}

		report.FilesProcessed++
		if ing.onProgress != nil {
			ing.onProgress(i+1, total, f.Path)
		}
	}

	if err := flush(); err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	report.Duration = time.Since(start)
	return report, nil
}
