package clientstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS client_store (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (session_id, key)
);
`

// SQLiteStore persists values in a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, eris.New("clientstore: sqlite store requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, eris.Wrap(err, "clientstore: create db dir")
	}
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, eris.Wrap(err, "clientstore: open sqlite")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "clientstore: create schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, session string, key Key) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM client_store WHERE session_id = ? AND key = ?`, session, string(key))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "clientstore: get %s", key)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, session string, key Key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO client_store (session_id, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		session, string(key), value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return eris.Wrapf(err, "clientstore: set %s", key)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, session string, key Key) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM client_store WHERE session_id = ? AND key = ?`, session, string(key)); err != nil {
		return eris.Wrapf(err, "clientstore: delete %s", key)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
