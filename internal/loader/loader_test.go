package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loankit/docpipe/internal/core/domain"
)

func writeRaw(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscover_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "b_doc.txt", "b")
	writeRaw(t, dir, "a_doc.txt", "a")
	writeRaw(t, dir, "data.json", `{"k": "v"}`)
	writeRaw(t, dir, "notes.md", "ignored")
	writeRaw(t, dir, "image.png", "ignored")

	paths, err := NewDefault().Discover(dir)
	require.NoError(t, err)

	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "a_doc.txt"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b_doc.txt"), paths[1])
	assert.Equal(t, filepath.Join(dir, "data.json"), paths[2])
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := NewDefault().Discover(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, domain.ErrRawDirNotFound)
}

func TestLoad_BuildsDocuments(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "loan_limits-2024.txt", "Loan limits depend on income.  \r\nCredit score matters.")

	docs, err := NewDefault().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "loan limits 2024", doc.Title)
	assert.Equal(t, domain.FormatText, doc.Format)
	assert.Equal(t, "Loan limits depend on income.\nCredit score matters.", doc.Text)
	assert.Len(t, doc.DocID, 12)

	assert.Equal(t, "loan limits 2024", doc.Metadata["doc_title"])
	assert.Equal(t, "txt", doc.Metadata["doc_format"])
	assert.Equal(t, len(doc.Text), doc.Metadata["clean_chars"])
	assert.NotEmpty(t, doc.Metadata["modified_at"])
	assert.NotEmpty(t, doc.Metadata["ingested_at"])
}

func TestLoad_DocIDStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	path := writeRaw(t, dir, "stable.txt", "same content")

	l := NewDefault()
	first, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	second, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].DocID, second[0].DocID)

	// A new mtime means a new identity.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	third, err := l.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, third, 1)
	assert.NotEqual(t, first[0].DocID, third[0].DocID)
}

func TestLoad_CorruptFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "good.txt", "fine")
	writeRaw(t, dir, "bad.json", `{"broken": `)

	docs, err := NewDefault().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "good", docs[0].Title)
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"loan_limit_guide.txt", "loan limit guide"},
		{"rates-2024-q1.pdf", "rates 2024 q1"},
		{"mixed_-_name.json", "mixed name"},
		{"plain.txt", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromPath(tt.path))
	}
}
