package vector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

const chunkSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	source_path TEXT NOT NULL,
	page INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	content TEXT NOT NULL,
	fingerprint INTEGER NOT NULL,
	embedding BLOB NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chunks_source_page ON chunks(source_path, page);

CREATE TABLE IF NOT EXISTS index_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore is a persistent Store. Embeddings are stored as BLOBs and
// searched by brute force.
type SQLiteStore struct {
	db         *sql.DB
	dimensions int
	metric     Metric
}

// NewSQLiteStore opens or creates the chunk index at dbPath. Opening an index
// built with a different embedding dimension fails until it is reset.
func NewSQLiteStore(dbPath string, dimensions int, metric Metric) (*SQLiteStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	db, err := storage.OpenSQLite(dbPath, chunkSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	s := &SQLiteStore{db: db, dimensions: dimensions, metric: metric}
	if err := s.checkDimensions(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) checkDimensions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO index_meta (key, value) VALUES ('dimensions', ?)`,
		strconv.Itoa(s.dimensions),
	); err != nil {
		return fmt.Errorf("%w: write index meta: %w", models.ErrStorage, err)
	}
	var stored string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'dimensions'`).Scan(&stored); err != nil {
		return fmt.Errorf("%w: read index meta: %w", models.ErrStorage, err)
	}
	if stored != strconv.Itoa(s.dimensions) {
		return fmt.Errorf("%w: index was built with %s dimensions, embedder produces %d; reset the index",
			models.ErrStorage, stored, s.dimensions)
	}
	return nil
}

func (s *SQLiteStore) ExistingIDs(ctx context.Context) (map[string]uint64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, fingerprint FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("%w: list chunk ids: %w", models.ErrStorage, err)
	}
	defer rows.Close()
	out := make(map[string]uint64)
	for rows.Next() {
		var id string
		var fp int64
		if err := rows.Scan(&id, &fp); err != nil {
			return nil, fmt.Errorf("%w: scan chunk id: %w", models.ErrStorage, err)
		}
		out[id] = uint64(fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list chunk ids: %w", models.ErrStorage, err)
	}
	return out, nil
}

func (s *SQLiteStore) InsertBatch(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := checkDims(e.Vector, s.dimensions); err != nil {
			return err
		}
	}
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO chunks (id, source_path, page, seq, content, fingerprint, embedding)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			c := e.Chunk
			// go-sqlite3 rejects uint64 values with the high bit set.
			if _, err := stmt.ExecContext(ctx, c.ID, c.SourcePath, c.Page, c.Seq, c.Text,
				int64(e.Fingerprint), storage.EncodeVector(e.Vector)); err != nil {
				return fmt.Errorf("insert %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: insert batch: %w", models.ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if err := checkDims(query, s.dimensions); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, source_path, page, seq, content, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", models.ErrStorage, err)
	}
	defer rows.Close()
	var hits []models.ScoredChunk
	for rows.Next() {
		var c models.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.SourcePath, &c.Page, &c.Seq, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan chunk: %w", models.ErrStorage, err)
		}
		hits = append(hits, models.ScoredChunk{Chunk: &c, Distance: s.metric.Distance(query, storage.DecodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: search: %w", models.ErrStorage, err)
	}
	return topK(hits, k), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count chunks: %w", models.ErrStorage, err)
	}
	return n, nil
}

// Reset deletes every chunk and forgets the recorded embedding dimension.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM index_meta`)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: reset index: %w", models.ErrStorage, err)
	}
	return s.checkDimensions(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
