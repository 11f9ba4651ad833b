// Package models defines core data structures for chunks, query records, and retrieval results.
package models

import "fmt"

// Page is the text of one page of a source document. Formats without pages
// produce a single page numbered 0.
type Page struct {
	SourcePath string `json:"source_path"`
	Number     int    `json:"page"`
	Text       string `json:"-"`
}

// Chunk is a contiguous span of text from one page of one source document.
// ID is derived from (SourcePath, Page, Seq) and is stable across runs given
// the same source content and chunking parameters.
type Chunk struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	Page       int    `json:"page"`
	Seq        int    `json:"seq"`
	Text       string `json:"text"`
}

// ChunkID formats the identity of a chunk.
func ChunkID(sourcePath string, page, seq int) string {
	return fmt.Sprintf("%s:%d:%d", sourcePath, page, seq)
}

// ScoredChunk is a chunk with its distance to a query. Smaller is more similar.
type ScoredChunk struct {
	Chunk    *Chunk  `json:"chunk"`
	Distance float64 `json:"distance"`
}
