package normalisers

import (
	"context"
	"fmt"
	"os"

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
)

// Ensure Plaintext implements the interface.
var _ driven.Extractor = (*Plaintext)(nil)

// Plaintext extracts text files as-is.
type Plaintext struct{}

// NewPlaintext creates a plain text extractor.
func NewPlaintext() *Plaintext {
	return &Plaintext{}
}

// Formats returns the file formats this extractor handles.
func (e *Plaintext) Formats() []domain.FileFormat {
	return []domain.FileFormat{domain.FormatText}
}

// Extract reads the whole file as UTF-8 text.
func (e *Plaintext) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
