package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// schema holds the on-disk contract. The documents table layout is the only
// part that must stay stable across versions; changing it orphans
// previously indexed data.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT NOT NULL,
    content TEXT NOT NULL,
    source TEXT NOT NULL,
    source_type TEXT NOT NULL,
    file_path TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    embedding BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);

CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLiteStore implements Store on a single SQLite database file. SQLite
// allows concurrent readers alongside a writer in WAL mode; similarity is
// computed in process over the stored vectors.
type SQLiteStore struct {
	db         *sql.DB
	dimensions int
}

// Open creates or opens the store at path with the given embedding
// dimensionality. Opening an existing store with a different
// dimensionality fails with ErrDimensionMismatch.
func Open(path string, dimensions int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageErr("open", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, storageErr("open", err)
	}

	return initStore(db, dimensions)
}

// OpenMemory creates an in-memory store (useful for testing).
func OpenMemory(dimensions int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, storageErr("open", err)
	}
	// Every pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)
	return initStore(db, dimensions)
}

func initStore(db *sql.DB, dimensions int) (*SQLiteStore, error) {
	if dimensions < 1 {
		db.Close()
		return nil, storageErr("open", fmt.Errorf("invalid dimensionality %d", dimensions))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storageErr("open", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}

	s := &SQLiteStore{db: db, dimensions: dimensions}
	if err := s.checkDimensions(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// checkDimensions pins the dimensionality on first open and verifies it on
// every subsequent open.
func (s *SQLiteStore) checkDimensions() error {
	var stored string
	err := s.db.QueryRow(`SELECT value FROM store_meta WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(`INSERT INTO store_meta (key, value) VALUES ('dimensions', ?)`,
			strconv.Itoa(s.dimensions))
		if err != nil {
			return storageErr("init dimensions", err)
		}
		return nil
	case err != nil:
		return storageErr("read dimensions", err)
	}

	got, err := strconv.Atoi(stored)
	if err != nil {
		return storageErr("read dimensions", err)
	}
	if got != s.dimensions {
		return fmt.Errorf("store created with %d dimensions, opened with %d: %w",
			got, s.dimensions, ErrDimensionMismatch)
	}
	return nil
}

func (s *SQLiteStore) Dimensions() int { return s.dimensions }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Insert(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	for _, r := range records {
		if len(r.Embedding) != s.dimensions {
			return 0, fmt.Errorf("record %s has %d dimensions, store has %d: %w",
				r.ID, len(r.Embedding), s.dimensions, ErrDimensionMismatch)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, content, source, source_type, file_path, chunk_index, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, storageErr("insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, r.ID, r.Content, r.Source, string(r.SourceType),
			r.FilePath, r.ChunkIndex, r.CreatedAt.UTC().Format(time.RFC3339), encodeVector(r.Embedding))
		if err != nil {
			return 0, storageErr("insert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("insert", err)
	}
	return len(records), nil
}

func (s *SQLiteStore) Search(ctx context.Context, query []float32, limit int) ([]SearchResult, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, store has %d: %w",
			len(query), s.dimensions, ErrDimensionMismatch)
	}

	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrEmptyStore
	}

	// rowid order makes the descending-similarity sort tie-break on
	// insertion order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, source, source_type, file_path, chunk_index, created_at, embedding
		FROM documents ORDER BY rowid`)
	if err != nil {
		return nil, storageErr("search", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		rec, emb, err := scanRecord(rows)
		if err != nil {
			return nil, storageErr("search", err)
		}
		if len(emb) != s.dimensions {
			return nil, fmt.Errorf("stored record %s has %d dimensions: %w",
				rec.ID, len(emb), ErrDimensionMismatch)
		}
		rec.Embedding = emb
		results = append(results, SearchResult{
			Record:     rec,
			Similarity: dot(query, emb),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("search", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func (s *SQLiteStore) DeleteBySource(ctx context.Context, source string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE source = ?`, source)
	if err != nil {
		return 0, storageErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("delete", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM documents GROUP BY source ORDER BY source`)
	if err != nil {
		return nil, storageErr("list sources", err)
	}
	defer rows.Close()

	var sources []SourceInfo
	for rows.Next() {
		var info SourceInfo
		if err := rows.Scan(&info.Source, &info.Documents); err != nil {
			return nil, storageErr("list sources", err)
		}
		sources = append(sources, info)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sources", err)
	}
	return sources, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}

func scanRecord(rows *sql.Rows) (Record, []float32, error) {
	var rec Record
	var sourceType, createdAt string
	var blob []byte

	err := rows.Scan(&rec.ID, &rec.Content, &rec.Source, &sourceType,
		&rec.FilePath, &rec.ChunkIndex, &createdAt, &blob)
	if err != nil {
		return Record{}, nil, err
	}

	rec.SourceType = SourceType(sourceType)
	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Record{}, nil, fmt.Errorf("parse created_at: %w", err)
	}

	emb, err := decodeVector(blob)
	if err != nil {
		return Record{}, nil, err
	}
	return rec, emb, nil
}

// encodeVector packs a vector as little-endian float32s.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}

// dot computes the inner product. Both vectors are unit length, so this is
// the cosine similarity.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
