package normalisers

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
	"github.com/loankit/docpipe/internal/logger"
)

// Ensure PDFDoc implements the interface.
var _ driven.Extractor = (*PDFDoc)(nil)

// PDFDoc extracts text from PDF files page by page. A page that fails
// extraction is skipped with a warning; only a file that yields nothing
// at all is treated as a failure.
type PDFDoc struct{}

// NewPDFDoc creates a PDF extractor.
func NewPDFDoc() *PDFDoc {
	return &PDFDoc{}
}

// Formats returns the file formats this extractor handles.
func (e *PDFDoc) Formats() []domain.FileFormat {
	return []domain.FileFormat{domain.FormatPDF}
}

// Extract concatenates per-page text with newlines.
func (e *PDFDoc) Extract(_ context.Context, path string) (text string, err error) {
	// The pdf parser panics on some malformed files; treat that as a
	// whole-file extraction failure so the batch continues.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var pages []string
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, pageErr := extractPage(page)
		if pageErr != nil {
			logger.Warn("pdf %s: skipping page %d/%d: %v", path, i, total, pageErr)
			continue
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n"), nil
}

// extractPage isolates per-page panics so one bad page does not take
// down the rest of the document.
func extractPage(page pdf.Page) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page extraction: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}
