package records

import (
	"context"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// MemoryStore keeps records in a map for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.QueryRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.QueryRecord)}
}

func (m *MemoryStore) Save(ctx context.Context, rec *models.QueryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.QueryID] = clone(rec)
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*models.QueryRecord, bool, error) {
	if !models.ValidQueryID(id) {
		return nil, false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, false, nil
	}
	return clone(rec), true, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryStore) Close() error { return nil }
