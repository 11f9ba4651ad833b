// Package vector provides the chunk index: embedded chunks searchable by distance.
package vector

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/kotae/internal/models"
)

// Entry is one indexed chunk with its embedding and content fingerprint.
type Entry struct {
	Chunk       *models.Chunk
	Vector      []float32
	Fingerprint uint64
}

// Store holds index entries keyed by chunk id. Entries are never updated in
// place; the only way to change stored content is Reset followed by re-ingestion.
// Implementations wrap backend failures with models.ErrStorage.
type Store interface {
	// ExistingIDs returns every stored chunk id mapped to its content fingerprint.
	ExistingIDs(ctx context.Context) (map[string]uint64, error)
	// InsertBatch stores entries atomically. Entries whose id is already present are skipped.
	InsertBatch(ctx context.Context, entries []Entry) error
	// Search returns up to k chunks ordered by ascending distance to query.
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	// Reset removes every entry.
	Reset(ctx context.Context) error
	Close() error
}

func checkDims(v []float32, want int) error {
	if len(v) != want {
		return fmt.Errorf("%w: vector dimension mismatch: got %d, expected %d", models.ErrStorage, len(v), want)
	}
	return nil
}

// topK sorts hits by distance (ties by id) and truncates to k.
func topK(hits []models.ScoredChunk, k int) []models.ScoredChunk {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
