package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

// MemoryStore is an in-memory Store using brute-force search. When created with
// a snapshot path, it loads the snapshot on open and rewrites it after every
// change.
type MemoryStore struct {
	dimensions int
	metric     Metric
	path       string
	entries    []Entry
	byID       map[string]int
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty, unpersisted store.
func NewMemoryStore(dimensions int, metric Metric) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		metric:     metric,
		byID:       make(map[string]int),
	}, nil
}

// OpenMemoryStore creates a store backed by the snapshot file at path.
// A missing file yields an empty store.
func OpenMemoryStore(path string, dimensions int, metric Metric) (*MemoryStore, error) {
	m, err := NewMemoryStore(dimensions, metric)
	if err != nil {
		return nil, err
	}
	m.path = path
	if err := m.load(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return m, nil
}

func (m *MemoryStore) ExistingIDs(ctx context.Context) (map[string]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]uint64, len(m.entries))
	for _, e := range m.entries {
		out[e.Chunk.ID] = e.Fingerprint
	}
	return out, nil
}

func (m *MemoryStore) InsertBatch(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := checkDims(e.Vector, m.dimensions); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// The batch is applied only once the snapshot holding it is on disk.
	next := m.entries[:len(m.entries):len(m.entries)]
	added := make(map[string]int, len(entries))
	for _, e := range entries {
		if _, ok := m.byID[e.Chunk.ID]; ok {
			continue
		}
		if _, ok := added[e.Chunk.ID]; ok {
			continue
		}
		vec := make([]float32, m.dimensions)
		copy(vec, e.Vector)
		chunk := *e.Chunk
		added[chunk.ID] = len(next)
		next = append(next, Entry{Chunk: &chunk, Vector: vec, Fingerprint: e.Fingerprint})
	}
	if len(added) == 0 {
		return nil
	}
	if err := m.save(next); err != nil {
		return err
	}
	m.entries = next
	for id, i := range added {
		m.byID[id] = i
	}
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if err := checkDims(query, m.dimensions); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}
	hits := make([]models.ScoredChunk, len(m.entries))
	for i, e := range m.entries {
		chunk := *e.Chunk
		hits[i] = models.ScoredChunk{Chunk: &chunk, Distance: m.metric.Distance(query, e.Vector)}
	}
	return topK(hits, k), nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.save(nil); err != nil {
		return err
	}
	m.entries = nil
	m.byID = make(map[string]int)
	return nil
}

// Close is a no-op; snapshots are written on every change.
func (m *MemoryStore) Close() error {
	return nil
}

// Snapshot format, little-endian: dimensions (u32), count (u32), then per entry:
// id, source path and text as (u32 length, bytes), page (u32), seq (u32),
// fingerprint (u64), vector (dimensions × f32).
func (m *MemoryStore) save(entries []Entry) error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("%w: create index dir: %w", models.ErrStorage, err)
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: create index file: %w", models.ErrStorage, err)
	}
	w := bufio.NewWriter(f)
	err = writeSnapshot(w, m.dimensions, entries)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: write snapshot: %w", models.ErrStorage, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("%w: replace snapshot: %w", models.ErrStorage, err)
	}
	return nil
}

func writeSnapshot(w io.Writer, dims int, entries []Entry) error {
	le := binary.LittleEndian
	if err := binary.Write(w, le, [2]uint32{uint32(dims), uint32(len(entries))}); err != nil {
		return err
	}
	for _, e := range entries {
		for _, s := range []string{e.Chunk.ID, e.Chunk.SourcePath, e.Chunk.Text} {
			if err := binary.Write(w, le, uint32(len(s))); err != nil {
				return err
			}
			if _, err := io.WriteString(w, s); err != nil {
				return err
			}
		}
		if err := binary.Write(w, le, [2]uint32{uint32(e.Chunk.Page), uint32(e.Chunk.Seq)}); err != nil {
			return err
		}
		if err := binary.Write(w, le, e.Fingerprint); err != nil {
			return err
		}
		if _, err := w.Write(storage.EncodeVector(e.Vector)); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) load() error {
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	le := binary.LittleEndian

	var header [2]uint32
	if err := binary.Read(r, le, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if int(header[0]) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", header[0], m.dimensions)
	}
	readString := func() (string, error) {
		var n uint32
		if err := binary.Read(r, le, &n); err != nil {
			return "", err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		return string(buf), nil
	}
	vecBuf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < header[1]; i++ {
		var strs [3]string
		for j := range strs {
			s, err := readString()
			if err != nil {
				return fmt.Errorf("read entry %d: %w", i, err)
			}
			strs[j] = s
		}
		var pos [2]uint32
		var fp uint64
		if err := binary.Read(r, le, &pos); err != nil {
			return fmt.Errorf("read entry %d: %w", i, err)
		}
		if err := binary.Read(r, le, &fp); err != nil {
			return fmt.Errorf("read entry %d: %w", i, err)
		}
		if _, err := io.ReadFull(r, vecBuf); err != nil {
			return fmt.Errorf("read entry %d vector: %w", i, err)
		}
		chunk := &models.Chunk{ID: strs[0], SourcePath: strs[1], Text: strs[2], Page: int(pos[0]), Seq: int(pos[1])}
		m.byID[chunk.ID] = len(m.entries)
		m.entries = append(m.entries, Entry{Chunk: chunk, Vector: storage.DecodeVector(vecBuf), Fingerprint: fp})
	}
	return nil
}
