package driven

import (
	"context"

	"github.com/loankit/docpipe/internal/core/domain"
)

// Extractor turns a source file of a specific format into raw text.
// Extraction output is not yet normalised; the loader runs the text
// normaliser over it before building a Document.
type Extractor interface {
	// Formats returns the file formats this extractor handles.
	Formats() []domain.FileFormat

	// Extract reads the file at path and returns its raw text.
	Extract(ctx context.Context, path string) (string, error)
}
