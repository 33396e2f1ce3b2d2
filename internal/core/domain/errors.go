package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, such as an
	// upsert record with a missing ID or an empty vector.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a file extension outside the
	// supported txt/json/pdf set.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrRawDirNotFound indicates the configured raw-data directory is
	// missing. Ingestion fails fast on this before any partial work.
	ErrRawDirNotFound = errors.New("raw data directory not found")

	// ErrStoreClosed indicates the vector store handle was used after Close.
	ErrStoreClosed = errors.New("vector store closed")
)
