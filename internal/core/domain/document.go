package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FileFormat identifies a supported source file format.
type FileFormat string

const (
	// FormatText is a plain text file.
	FormatText FileFormat = "txt"
	// FormatJSON is a JSON document flattened into indented text.
	FormatJSON FileFormat = "json"
	// FormatPDF is a PDF document extracted page by page.
	FormatPDF FileFormat = "pdf"
)

// ParseFileFormat maps a file extension (with or without leading dot)
// to a FileFormat. Returns ErrUnsupportedFormat for anything else.
func ParseFileFormat(ext string) (FileFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Document is a normalised source document ready for chunking.
// Documents are value objects: once built by the loader they are not
// mutated, and identity is fully determined by source path and mtime.
type Document struct {
	// DocID is content-derived: the same file with the same mtime always
	// produces the same ID across runs.
	DocID string `json:"doc_id"`

	// Title is derived from the filename stem.
	Title string `json:"title"`

	// SourcePath is the path the document was loaded from.
	SourcePath string `json:"source_path"`

	// Format is the source file format.
	Format FileFormat `json:"file_format"`

	// Text is the normalised full text.
	Text string `json:"text"`

	// Metadata carries descriptive fields (title, source, size, mtime,
	// character counts, ingestion timestamp).
	Metadata map[string]any `json:"metadata"`
}

// Chunk is a contiguous, trimmed slice of a parent document.
type Chunk struct {
	// ChunkID is "{doc_id}:{zero-padded index}".
	ChunkID string `json:"id"`

	// DocID identifies the parent document.
	DocID string `json:"doc_id"`

	// Index is the zero-based position of the chunk within the document.
	Index int `json:"index"`

	// Text is the trimmed chunk text.
	Text string `json:"text"`

	// Start and End are character offsets of the raw window within the
	// parent document text (before trimming).
	Start int `json:"start"`
	End   int `json:"end"`

	// Metadata holds chunk offsets plus all parent document metadata.
	Metadata map[string]any `json:"metadata"`
}

// EmbeddingRecord pairs a chunk with its vector, one-to-one.
type EmbeddingRecord struct {
	ChunkID  string         `json:"id"`
	Vector   []float64      `json:"vector"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Candidate is a query-time search result. Distance is the raw
// store-reported dissimilarity (nil when the backend reports none);
// Score is derived from it, higher is better. ScoreNormalized is filled
// in by the reranker and lies in [0, 1].
type Candidate struct {
	ID              string         `json:"id"`
	Text            string         `json:"text"`
	Metadata        map[string]any `json:"metadata"`
	Distance        *float64       `json:"distance,omitempty"`
	Score           float64        `json:"score"`
	ScoreNormalized float64        `json:"score_normalized"`
}

// docIDHexLen is the number of hex characters kept from the hash.
const docIDHexLen = 12

// NewDocID derives a stable document ID from the source path and the
// file's modification timestamp. Re-ingesting an unchanged file yields
// the same ID; touching the file yields a new one.
func NewDocID(sourcePath, modifiedAt string) string {
	sum := sha256.Sum256([]byte(sourcePath + "::" + modifiedAt))
	return hex.EncodeToString(sum[:])[:docIDHexLen]
}

// NewChunkID builds a chunk ID from the parent document ID and the
// chunk's sequence number.
func NewChunkID(docID string, index int) string {
	return fmt.Sprintf("%s:%04d", docID, index)
}
