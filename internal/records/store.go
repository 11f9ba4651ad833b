// Package records persists query records keyed by query id.
package records

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// MemoryPath selects an in-process record store.
const MemoryPath = ":memory:"

// Store saves and loads query records. Save is an idempotent upsert that
// replaces the whole record. Load reports a missing or malformed id as
// (nil, false, nil); errors are reserved for backend failures and wrap
// models.ErrStorage.
type Store interface {
	Save(ctx context.Context, rec *models.QueryRecord) error
	Load(ctx context.Context, id string) (*models.QueryRecord, bool, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open returns a MemoryStore for MemoryPath and a SQLiteStore otherwise.
func Open(path string) (Store, error) {
	if path == MemoryPath {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(path)
}

func clone(rec *models.QueryRecord) *models.QueryRecord {
	out := *rec
	if rec.AnswerText != nil {
		a := *rec.AnswerText
		out.AnswerText = &a
	}
	out.Sources = append([]string{}, rec.Sources...)
	return &out
}
