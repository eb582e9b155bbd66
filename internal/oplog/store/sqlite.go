package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"flightsurety/internal/oplog/models"
	"flightsurety/pkg/platform/sentinel"
)

// SQLiteStore persists the log in an embedded SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens path, applies pragmas, and ensures the schema exists.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers; the engine is single-writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create op_log schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO op_log (height, id, kind, payload, applied_at)
		SELECT ?, ?, ?, ?, ?
		WHERE (SELECT COALESCE(MAX(height), 0) FROM op_log) = ? - 1
	`
	h := int64(entry.Height)
	res, err := s.db.ExecContext(ctx, query, h, entry.ID.String(), entry.Kind, string(entry.Payload), entry.AppliedAt, h)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return fmt.Errorf("append height %d: %w", entry.Height, sentinel.ErrConflict)
		}
		return fmt.Errorf("append op_log entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append op_log entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("append height %d: %w", entry.Height, sentinel.ErrConflict)
	}
	return nil
}

func (s *SQLiteStore) Since(ctx context.Context, after uint64) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT height, id, kind, payload, applied_at FROM op_log WHERE height > ? ORDER BY height`,
		int64(after))
	if err != nil {
		return nil, fmt.Errorf("query op_log: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLiteStore) Height(ctx context.Context) (uint64, error) {
	var h int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(height), 0) FROM op_log`).Scan(&h); err != nil {
		return 0, fmt.Errorf("query op_log height: %w", err)
	}
	return uint64(h), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
