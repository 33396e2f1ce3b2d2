// Package loader discovers supported source files under a raw-data
// directory and turns them into normalised documents with stable,
// content-derived identities.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
	"github.com/loankit/docpipe/internal/logger"
	"github.com/loankit/docpipe/internal/normalisers"
)

// Loader maps file formats to extractors and builds documents.
type Loader struct {
	extractors map[domain.FileFormat]driven.Extractor
	now        func() time.Time
}

// Option configures the loader.
type Option func(*Loader)

// WithClock overrides the ingestion timestamp source. Useful for testing.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// New creates a loader with the given extractors. An extractor
// registered later for the same format wins.
func New(extractors []driven.Extractor, opts ...Option) *Loader {
	l := &Loader{
		extractors: make(map[domain.FileFormat]driven.Extractor),
		now:        time.Now,
	}
	for _, ex := range extractors {
		for _, format := range ex.Formats() {
			l.extractors[format] = ex
		}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewDefault creates a loader wired with the built-in txt/json/pdf
// extractors.
func NewDefault(opts ...Option) *Loader {
	return New([]driven.Extractor{
		normalisers.NewPlaintext(),
		normalisers.NewJSONDoc(),
		normalisers.NewPDFDoc(),
	}, opts...)
}

// Discover walks rawDir and returns a sorted list of supported files.
// Files with unsupported extensions are skipped with a warning, never
// an error. A missing directory is ErrRawDirNotFound.
func (l *Loader) Discover(rawDir string) ([]string, error) {
	info, err := os.Stat(rawDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRawDirNotFound, rawDir)
		}
		return nil, fmt.Errorf("stat %s: %w", rawDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrRawDirNotFound, rawDir)
	}

	var paths []string
	err = filepath.WalkDir(rawDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		format, err := domain.ParseFileFormat(filepath.Ext(path))
		if err != nil {
			logger.Warn("skipping unsupported file: %s", path)
			return nil
		}
		if _, ok := l.extractors[format]; !ok {
			logger.Warn("no extractor registered for %s, skipping %s", format, path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", rawDir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Load extracts, normalises and wraps every discovered file. A file
// that fails extraction is skipped and logged; the batch continues.
func (l *Loader) Load(ctx context.Context, rawDir string) ([]domain.Document, error) {
	paths, err := l.Discover(rawDir)
	if err != nil {
		return nil, err
	}

	documents := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := l.loadOne(ctx, path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			continue
		}
		documents = append(documents, *doc)
	}

	logger.Info("loaded %d documents from %s", len(documents), rawDir)
	return documents, nil
}

// loadOne builds a single document from a source file.
func (l *Loader) loadOne(ctx context.Context, path string) (*domain.Document, error) {
	format, err := domain.ParseFileFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	extractor, ok := l.extractors[format]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %s", domain.ErrUnsupportedFormat, format)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	raw, err := extractor.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extracting: %w", err)
	}

	clean := normalisers.CleanText(raw)
	modifiedAt := info.ModTime().UTC().Format(time.RFC3339)
	docID := domain.NewDocID(path, modifiedAt)
	title := TitleFromPath(path)

	metadata := map[string]any{
		"doc_title":   title,
		"doc_source":  path,
		"doc_name":    filepath.Base(path),
		"doc_format":  string(format),
		"file_size":   info.Size(),
		"modified_at": modifiedAt,
		"raw_chars":   len(raw),
		"clean_chars": len(clean),
		"ingested_at": l.now().UTC().Format(time.RFC3339),
	}

	return &domain.Document{
		DocID:      docID,
		Title:      title,
		SourcePath: path,
		Format:     format,
		Text:       clean,
		Metadata:   metadata,
	}, nil
}

var titleSpaceRuns = regexp.MustCompile(`\s+`)

// TitleFromPath derives a human-readable title from the filename stem:
// underscores and hyphens become spaces, whitespace is collapsed.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(titleSpaceRuns.ReplaceAllString(name, " "))
}
