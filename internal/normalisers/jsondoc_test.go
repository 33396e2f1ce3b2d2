package normalisers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestJSONDoc_FlattensNestedStructure(t *testing.T) {
	path := writeTemp(t, "doc.json", `{
		"limit": 5000,
		"active": true,
		"terms": {"rate": 3.5, "years": 30},
		"notes": ["first", "second"]
	}`)

	text, err := NewJSONDoc().Extract(context.Background(), path)
	require.NoError(t, err)

	want := "active: true\n" +
		"limit: 5000\n" +
		"notes:\n" +
		"  - first\n" +
		"  - second\n" +
		"terms:\n" +
		"  rate: 3.5\n" +
		"  years: 30\n"
	assert.Equal(t, want, text)
}

func TestJSONDoc_Deterministic(t *testing.T) {
	path := writeTemp(t, "doc.json", `{"b": 1, "a": {"z": null, "y": false}}`)

	ex := NewJSONDoc()
	first, err := ex.Extract(context.Background(), path)
	require.NoError(t, err)
	second, err := ex.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "z: null")
}

func TestJSONDoc_MalformedFails(t *testing.T) {
	path := writeTemp(t, "bad.json", `{"a": `)

	_, err := NewJSONDoc().Extract(context.Background(), path)
	assert.Error(t, err)
}

func TestPlaintext_ReadsFile(t *testing.T) {
	path := writeTemp(t, "doc.txt", "hello world")

	text, err := NewPlaintext().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestPDFDoc_InvalidFileFails(t *testing.T) {
	path := writeTemp(t, "not-a.pdf", "plain text pretending to be pdf")

	_, err := NewPDFDoc().Extract(context.Background(), path)
	assert.Error(t, err)
}
