// Package keyword provides a full-text index over chunk text for direct
// lookups alongside vector retrieval.
package keyword

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// SearchOptions are optional parameters for keyword search. Nil means defaults.
type SearchOptions struct {
	// FuzzyEnabled matches terms within Fuzziness edits for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance (1 or 2). Default 2.
	Fuzziness int
	// Highlight requests marked-up fragments of matching text.
	Highlight bool
}

// Result is a single keyword hit.
type Result struct {
	ID         string   `json:"id"`
	SourcePath string   `json:"source_path"`
	Page       int      `json:"page"`
	Score      float64  `json:"score"`
	Fragments  []string `json:"fragments,omitempty"`
}

// ChunkIndex indexes chunk text by chunk id.
type ChunkIndex interface {
	IndexChunks(ctx context.Context, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	DocCount() (uint64, error)
	// Reset drops every indexed chunk.
	Reset(ctx context.Context) error
	Close() error
}
