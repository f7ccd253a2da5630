package vectorstore

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when a vector's dimensionality differs
// from the dimensionality fixed at table creation. Failing fast here keeps
// a bad writer from corrupting the index.
var ErrDimensionMismatch = errors.New("embedding dimensionality does not match store")

// QueryError indicates an invalid search request or an unqueryable store.
// Zero matches against a populated store is not a QueryError; it is an
// empty result.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string { return "query: " + e.Reason }

var (
	// ErrInvalidLimit rejects search limits below 1.
	ErrInvalidLimit error = &QueryError{Reason: "limit must be at least 1"}

	// ErrEmptyStore is returned when searching a store with no documents.
	// Callers higher up treat it as "no results" rather than a failure.
	ErrEmptyStore error = &QueryError{Reason: "store contains no documents"}
)

// StorageError wraps an I/O or schema failure from the underlying engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("vectorstore %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
