package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driving"
	"github.com/loankit/docpipe/internal/logger"
)

// Default artifact filenames under the output directory.
const (
	DefaultChunkFilename    = "chunks.jsonl"
	DefaultDocumentFilename = "documents.json"
)

// chunkLine is the JSONL record written per chunk. Offsets and parent
// document fields travel in the metadata map.
type chunkLine struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// writeArtifacts persists both ingest artifacts under opts.OutputDir.
func writeArtifacts(opts driving.IngestOptions, documents []domain.Document, chunks []domain.Chunk) error {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	chunkName := opts.ChunkFilename
	if chunkName == "" {
		chunkName = DefaultChunkFilename
	}
	docName := opts.DocumentFilename
	if docName == "" {
		docName = DefaultDocumentFilename
	}

	chunkPath := filepath.Join(opts.OutputDir, chunkName)
	if err := WriteChunks(chunkPath, chunks); err != nil {
		return err
	}
	docPath := filepath.Join(opts.OutputDir, docName)
	if err := WriteDocumentMetadata(docPath, documents); err != nil {
		return err
	}

	logger.Info("wrote %d chunks to %s and %d documents to %s",
		len(chunks), chunkPath, len(documents), docPath)
	return nil
}

// WriteChunks writes one JSON object per chunk, newline-delimited.
func WriteChunks(path string, chunks []domain.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, chunk := range chunks {
		line := chunkLine{
			ID:       chunk.ChunkID,
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encoding chunk %s: %w", chunk.ChunkID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}

// WriteDocumentMetadata writes the per-document metadata as a pretty
// JSON array, one entry per ingested document.
func WriteDocumentMetadata(path string, documents []domain.Document) error {
	entries := make([]map[string]any, 0, len(documents))
	for _, doc := range documents {
		entry := make(map[string]any, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			entry[k] = v
		}
		entry["doc_id"] = doc.DocID
		entry["chars"] = len(doc.Text)
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling document metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
