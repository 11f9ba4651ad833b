package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

const recordSchema = `
CREATE TABLE IF NOT EXISTS query_records (
	query_id TEXT PRIMARY KEY,
	create_time INTEGER NOT NULL,
	query_text TEXT NOT NULL,
	answer_text TEXT,
	sources TEXT NOT NULL DEFAULT '[]',
	is_complete INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore persists records in a SQLite table, one row per query id.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the record database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := storage.OpenSQLite(dbPath, recordSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec *models.QueryRecord) error {
	sources := rec.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_records (query_id, create_time, query_text, answer_text, sources, is_complete)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(query_id) DO UPDATE SET
			create_time = excluded.create_time,
			query_text = excluded.query_text,
			answer_text = excluded.answer_text,
			sources = excluded.sources,
			is_complete = excluded.is_complete`,
		rec.QueryID, rec.CreateTime, rec.QueryText, rec.AnswerText, string(sourcesJSON), rec.IsComplete,
	)
	if err != nil {
		return fmt.Errorf("%w: save record %s: %w", models.ErrStorage, rec.QueryID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*models.QueryRecord, bool, error) {
	if !models.ValidQueryID(id) {
		return nil, false, nil
	}
	var (
		rec         models.QueryRecord
		answer      sql.NullString
		sourcesJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT query_id, create_time, query_text, answer_text, sources, is_complete
		FROM query_records WHERE query_id = ?`, id,
	).Scan(&rec.QueryID, &rec.CreateTime, &rec.QueryText, &answer, &sourcesJSON, &rec.IsComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: load record %s: %w", models.ErrStorage, id, err)
	}
	if answer.Valid {
		rec.AnswerText = &answer.String
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &rec.Sources); err != nil {
		return nil, false, fmt.Errorf("%w: decode sources of %s: %w", models.ErrStorage, id, err)
	}
	if rec.Sources == nil {
		rec.Sources = []string{}
	}
	return &rec, true, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count records: %w", models.ErrStorage, err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
