package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"flightsurety/internal/oplog/models"
	"flightsurety/pkg/platform/sentinel"
	txcontext "flightsurety/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// PostgresStore persists the log in PostgreSQL. It works with both the lib/pq
// and pgx stdlib drivers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates the store and ensures the schema exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create op_log schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFrom(ctx, s.db)
}

// Append inserts entry only if it is the next height.
func (s *PostgresStore) Append(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO op_log (height, id, kind, payload, applied_at)
		SELECT $1::BIGINT, $2::TEXT, $3::TEXT, $4::TEXT, $5::TIMESTAMP
		WHERE (SELECT COALESCE(MAX(height), 0) FROM op_log) = $1::BIGINT - 1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		int64(entry.Height), entry.ID.String(), entry.Kind, string(entry.Payload), entry.AppliedAt)
	if err != nil {
		if isUniqueViolation(err) {
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

func (s *PostgresStore) Since(ctx context.Context, after uint64) ([]models.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT height, id, kind, payload, applied_at FROM op_log WHERE height > $1 ORDER BY height`,
		int64(after))
	if err != nil {
		return nil, fmt.Errorf("query op_log: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) Height(ctx context.Context) (uint64, error) {
	var h int64
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT COALESCE(MAX(height), 0) FROM op_log`).Scan(&h)
	if err != nil {
		return 0, fmt.Errorf("query op_log height: %w", err)
	}
	return uint64(h), nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func scanEntries(rows *sql.Rows) ([]models.Entry, error) {
	var out []models.Entry
	for rows.Next() {
		var (
			height    int64
			rawID     string
			kind      string
			payload   string
			appliedAt time.Time
		)
		if err := rows.Scan(&height, &rawID, &kind, &payload, &appliedAt); err != nil {
			return nil, fmt.Errorf("scan op_log entry: %w", err)
		}
		entryID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse op_log id %q: %w", rawID, err)
		}
		out = append(out, models.Entry{
			Height:    uint64(height),
			ID:        entryID,
			Kind:      kind,
			Payload:   []byte(payload),
			AppliedAt: appliedAt.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate op_log: %w", err)
	}
	return out, nil
}
