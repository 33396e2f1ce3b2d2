// Package chunker splits normalised documents into overlapping,
// boundary-aligned chunks. For a given document and fixed parameters
// the chunk sequence is fully deterministic.
package chunker

import (
	"strings"

	"github.com/loankit/docpipe/internal/core/domain"
)

// DefaultChunkSize is the default maximum window size in characters.
const DefaultChunkSize = 800

// DefaultOverlap is the default overlap between consecutive chunks.
const DefaultOverlap = 120

// DefaultMinChunkChars is the default minimum chunk length; shorter
// windows are widened rather than emitted (except at end of text).
const DefaultMinChunkChars = 200

// boundaryAnchors are scanned in priority order; the overall rightmost
// match wins regardless of anchor type, and on a position tie the
// anchor scanned later supplies the cut length.
var boundaryAnchors = []string{"\n\n", "\n", ". ", "! ", "? "}

// Chunker splits document text into chunks.
type Chunker struct {
	chunkSize     int
	overlap       int
	minChunkChars int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum window size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinChunkChars sets the minimum chunk length in characters.
func WithMinChunkChars(min int) Option {
	return func(c *Chunker) {
		if min >= 0 {
			c.minChunkChars = min
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:     DefaultChunkSize,
		overlap:       DefaultOverlap,
		minChunkChars: DefaultMinChunkChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits a single document. A zero-length document yields no
// chunks. The loop invariant is that start strictly increases every
// iteration, so overlap >= chunkSize degrades to small steps instead
// of looping forever.
func (c *Chunker) Chunk(doc domain.Document) []domain.Chunk {
	text := doc.Text
	n := len(text)
	if n == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	index := 0

	for start < n {
		end := start + c.chunkSize
		if end > n {
			end = n
		}

		// Snap the window end to the rightmost boundary anchor, but
		// only when the window does not already reach end-of-text and
		// the boundary lies strictly beyond the overlap region.
		if end < n {
			if pos, anchorLen := rightmostAnchor(text[start:end]); pos > c.overlap {
				end = start + pos + anchorLen
			}
		}

		trimmed := strings.TrimSpace(text[start:end])

		if trimmed == "" {
			// Nothing but whitespace; move on without emitting.
			next := start + c.overlap
			if next < end {
				next = end
			}
			start = advance(start, next)
			continue
		}

		if len(trimmed) < c.minChunkChars && end < n {
			// Too small and more text remains: back off from the
			// computed end and retry with a window reaching further.
			start = advance(start, end-c.overlap)
			continue
		}

		chunk := domain.Chunk{
			ChunkID: domain.NewChunkID(doc.DocID, index),
			DocID:   doc.DocID,
			Index:   index,
			Text:    trimmed,
			Start:   start,
			End:     end,
			Metadata: chunkMetadata(doc, map[string]any{
				"chunk_start": start,
				"chunk_end":   end,
				"chunk_chars": len(trimmed),
			}),
		}
		chunks = append(chunks, chunk)

		if end >= n {
			break
		}
		start = advance(start, end-c.overlap)
		index++
	}

	return chunks
}

// ChunkAll concatenates per-document chunking results in order.
func (c *Chunker) ChunkAll(docs []domain.Document) []domain.Chunk {
	var all []domain.Chunk
	for _, doc := range docs {
		all = append(all, c.Chunk(doc)...)
	}
	return all
}

// rightmostAnchor finds the rightmost boundary anchor in window.
// Returns (-1, 0) when no anchor occurs. Anchors are scanned in
// priority order with >= comparison, so on a position tie the
// later-scanned anchor determines the reported length.
func rightmostAnchor(window string) (pos, anchorLen int) {
	pos = -1
	for _, anchor := range boundaryAnchors {
		if p := strings.LastIndex(window, anchor); p >= 0 && p >= pos {
			pos = p
			anchorLen = len(anchor)
		}
	}
	return pos, anchorLen
}

// advance moves start to next while guaranteeing strict progress.
func advance(start, next int) int {
	if next <= start {
		return start + 1
	}
	return next
}

// chunkMetadata merges chunk fields over a copy of the parent document
// metadata, plus the standard doc identity keys.
func chunkMetadata(doc domain.Document, chunkFields map[string]any) map[string]any {
	merged := make(map[string]any, len(doc.Metadata)+len(chunkFields)+1)
	for k, v := range doc.Metadata {
		merged[k] = v
	}
	merged["doc_id"] = doc.DocID
	for k, v := range chunkFields {
		merged[k] = v
	}
	return merged
}
