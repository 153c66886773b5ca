package clientstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS client_store (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, key)
)`

// pgPool is the subset of *pgxpool.Pool the store uses.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore persists values in a shared Postgres table.
type PostgresStore struct {
	pool pgPool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "clientstore: connect postgres")
	}
	s, err := newPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(ctx context.Context, pool pgPool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, eris.Wrap(err, "clientstore: create schema")
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Get(ctx context.Context, session string, key Key) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM client_store WHERE session_id = $1 AND key = $2`, session, string(key)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "clientstore: get %s", key)
	}
	return value, nil
}

func (p *PostgresStore) Set(ctx context.Context, session string, key Key, value string) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO client_store (session_id, key, value) VALUES ($1, $2, $3)
ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		session, string(key), value)
	if err != nil {
		return eris.Wrapf(err, "clientstore: set %s", key)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, session string, key Key) error {
	if _, err := p.pool.Exec(ctx,
		`DELETE FROM client_store WHERE session_id = $1 AND key = $2`, session, string(key)); err != nil {
		return eris.Wrapf(err, "clientstore: delete %s", key)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
