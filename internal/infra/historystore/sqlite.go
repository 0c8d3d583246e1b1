package historystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"

	_ "modernc.org/sqlite"
)

const createTable = `CREATE TABLE IF NOT EXISTS fund_history (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLite stores histories in a single key/value table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create fund_history table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get implements port.FundHistoryStore.
func (s *SQLite) Get(ctx context.Context, userID string) ([]domain.FundHistoryEntry, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM fund_history WHERE key = ?`, Key(userID)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("historystore: sqlite get: %w", err)
	}
	return decode([]byte(raw))
}

// Put implements port.FundHistoryStore.
func (s *SQLite) Put(ctx context.Context, userID string, entries []domain.FundHistoryEntry) error {
	raw, err := encode(entries)
	if err != nil {
		return err
	}
	return s.putRaw(ctx, userID, string(raw))
}

func (s *SQLite) putRaw(ctx context.Context, userID, raw string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fund_history (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		Key(userID), raw, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("historystore: sqlite put: %w", err)
	}
	return nil
}

// Delete implements port.FundHistoryStore.
func (s *SQLite) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM fund_history WHERE key = ?`, Key(userID)); err != nil {
		return fmt.Errorf("historystore: sqlite delete: %w", err)
	}
	return nil
}

// Ping checks the database, used by the health endpoint.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
