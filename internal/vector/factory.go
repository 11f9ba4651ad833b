package vector

import (
	"path/filepath"
	"strings"
)

// MemoryPath selects an unpersisted in-memory store.
const MemoryPath = ":memory:"

// SnapshotExt selects a memory store persisted to a single snapshot file.
const SnapshotExt = ".snapshot"

// Open returns the Store for path: MemoryPath gives a MemoryStore, a path ending
// in SnapshotExt a snapshot-backed MemoryStore, anything else a SQLiteStore.
func Open(path string, dimensions int, metric Metric) (Store, error) {
	switch {
	case path == MemoryPath:
		return NewMemoryStore(dimensions, metric)
	case strings.EqualFold(filepath.Ext(path), SnapshotExt):
		return OpenMemoryStore(path, dimensions, metric)
	default:
		return NewSQLiteStore(path, dimensions, metric)
	}
}
