package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

const queryTimeout = 5 * time.Second

// SQLite keeps settings in a two-column table.
type SQLite struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (or creates) the database at path and ensures the table exists.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path, table string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	if table == "" {
		table = "settings"
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`, table)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create settings table")
	}
	return &SQLite{db: db, table: table}, nil
}

// Has reports whether key is present.
func (s *SQLite) Has(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var n int
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE key = ?`, s.table)
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&n); err != nil {
		return false, errors.Wrapf(err, "lookup %s", key)
	}
	return n > 0, nil
}

// GetString returns the value for key, or "" if absent.
func (s *SQLite) GetString(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var value string
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, s.table)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "read %s", key)
	}
	return value, nil
}

// SetString upserts value under key.
func (s *SQLite) SetString(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	stmt := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt, key, value, time.Now().UTC().UnixMilli()); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
