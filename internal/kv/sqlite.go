package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // CGo-free sqlite driver
)

// SQLiteAdapter persists keys in a single-table SQLite database. Selected
// with --kv-backend=sqlite; useful where a single portable file beats a
// Badger directory.
type SQLiteAdapter struct {
	db     *sql.DB
	logger *slog.Logger
	notifier
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	k TEXT PRIMARY KEY,
	v BLOB NOT NULL
) WITHOUT ROWID;
`

// NewSQLite opens (or creates) a SQLite database at path.
func NewSQLite(path string, logger *slog.Logger) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// Serialized access keeps Change ordering deterministic.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	if logger != nil {
		logger.Info("sqlite database opened", "path", path)
	}

	return &SQLiteAdapter{db: db, logger: logger}, nil
}

// Get retrieves a value by key.
func (a *SQLiteAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := a.db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value and notifies subscribers with the previous value.
func (a *SQLiteAdapter) Set(ctx context.Context, key string, value []byte) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	var old []byte
	err = tx.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite read old %s: %w", key, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		key, value)
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}

	a.notify(Change{Key: key, OldValue: old, NewValue: value})
	return nil
}

// Remove deletes a key. Removing a missing key is a no-op and emits no change.
func (a *SQLiteAdapter) Remove(ctx context.Context, key string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	var old []byte
	err = tx.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sqlite read old %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key); err != nil {
		return fmt.Errorf("sqlite remove %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}

	a.notify(Change{Key: key, OldValue: old})
	return nil
}

// Close closes the underlying database.
func (a *SQLiteAdapter) Close() error {
	if a.logger != nil {
		a.logger.Info("closing sqlite database")
	}
	return a.db.Close()
}
