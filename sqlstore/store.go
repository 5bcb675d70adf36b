// Package sqlstore stores workflow statuses in a SQL database. The same
// queries run on SQLite (modernc.org/sqlite, driver "sqlite") and PostgreSQL
// (lib/pq, driver "postgres").
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/statusview"
	"github.com/deepnoodle-ai/statusview/retry"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS statuses (
	request_id  TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	status      INTEGER NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	data        TEXT NOT NULL,
	saved_at    BIGINT NOT NULL
)`

const index = `CREATE INDEX IF NOT EXISTS statuses_name_saved_at ON statuses (name, saved_at)`

// Store is a statusview.StatusStore backed by database/sql.
type Store struct {
	db *sql.DB
}

var _ statusview.StatusStore = (*Store)(nil)

// Open connects to the database, waiting for it to accept connections, and
// creates the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// Writers would otherwise fail with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	err = retry.Do(ctx, func() error {
		return db.PingContext(ctx)
	}, retry.WithMaxRetries(5), retry.WithBaseWait(200*time.Millisecond))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection pool. The schema must already exist or
// Migrate must be called.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range []string{schema, index} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveStatus(ctx context.Context, status *statusview.Status) error {
	if status.Name == "" {
		return fmt.Errorf("status name required")
	}
	requestID := status.RequestID
	if requestID == "" {
		requestID = fmt.Sprintf("%s-%d", status.Name, time.Now().UnixNano())
	}
	data, err := status.ToJSON()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO statuses
		(request_id, name, status, started_at, finished_at, data, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (request_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			data = excluded.data,
			saved_at = excluded.saved_at`,
		requestID, status.Name, int(status.Status), status.StartedAt, status.FinishedAt, string(data), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

func (s *Store) LoadStatus(ctx context.Context, name string) (*statusview.Status, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM statuses WHERE name = $1 ORDER BY saved_at DESC LIMIT 1`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load status: %w", err)
	}
	return statusview.StatusFromJSON([]byte(data))
}

func (s *Store) DeleteStatus(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM statuses WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	return nil
}

func (s *Store) ListStatuses(ctx context.Context) ([]*statusview.StatusSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.data FROM statuses s
		WHERE s.saved_at = (SELECT MAX(l.saved_at) FROM statuses l WHERE l.name = s.name)
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	summaries := []*statusview.StatusSummary{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		status, err := statusview.StatusFromJSON([]byte(data))
		if err != nil {
			continue
		}
		summaries = append(summaries, statusview.Summarize(status))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return summaries, nil
}
