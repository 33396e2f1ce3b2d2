package normalisers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
)

// Ensure JSONDoc implements the interface.
var _ driven.Extractor = (*JSONDoc)(nil)

// JSONDoc flattens JSON documents into indented key/value lines so
// they chunk and embed like prose. Object keys are emitted in sorted
// order to keep extraction deterministic.
type JSONDoc struct{}

// NewJSONDoc creates a JSON extractor.
func NewJSONDoc() *JSONDoc {
	return &JSONDoc{}
}

// Formats returns the file formats this extractor handles.
func (e *JSONDoc) Formats() []domain.FileFormat {
	return []domain.FileFormat{domain.FormatJSON}
}

// Extract parses the file and renders its structure as indented lines.
func (e *JSONDoc) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber() // keep numeric literals as written

	var value any
	if err := dec.Decode(&value); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}

	var b strings.Builder
	flattenValue(&b, value, 0)
	return b.String(), nil
}

// flattenValue renders a decoded JSON value at the given indent depth.
func flattenValue(b *strings.Builder, value any, depth int) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := v[k]
			if isScalar(child) {
				writeLine(b, depth, k+": "+scalarString(child))
			} else {
				writeLine(b, depth, k+":")
				flattenValue(b, child, depth+1)
			}
		}
	case []any:
		for _, item := range v {
			if isScalar(item) {
				writeLine(b, depth, "- "+scalarString(item))
			} else {
				writeLine(b, depth, "-")
				flattenValue(b, item, depth+1)
			}
		}
	default:
		writeLine(b, depth, scalarString(v))
	}
}

func writeLine(b *strings.Builder, depth int, line string) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
	b.WriteString(line)
	b.WriteByte('\n')
}

func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	default:
		return true
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		if s {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", s)
	}
}
