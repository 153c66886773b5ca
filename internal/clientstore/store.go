// Package clientstore persists per-session wizard and report state.
//
// Every stage receives a KV bound to one browser session; the backing
// Store decides where the values live.
package clientstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
)

// Key names a stored value. The names match the browser storage keys the
// service has always used so exported data stays readable.
type Key string

const (
	KeyFormAnswers         Key = "patentFormData"
	KeyContributorAnalysis Key = "contributorAnalysis"
	KeyPatentReport        Key = "patentReport"
	KeyFinalReport         Key = "finalReport"
	KeyReportMatches       Key = "finalReportMatches"
	KeyWizardDraft         Key = "wizardDraft"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("clientstore: not found")

// Store is a session-partitioned string key-value store.
type Store interface {
	Get(ctx context.Context, session string, key Key) (string, error)
	Set(ctx context.Context, session string, key Key, value string) error
	Delete(ctx context.Context, session string, key Key) error
	Close() error
}

// KV is a Store bound to one session.
type KV interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
}

type boundKV struct {
	store   Store
	session string
}

// Bind returns a KV scoped to session.
func Bind(store Store, session string) KV {
	return &boundKV{store: store, session: session}
}

func (b *boundKV) Get(ctx context.Context, key Key) (string, error) {
	return b.store.Get(ctx, b.session, key)
}

func (b *boundKV) Set(ctx context.Context, key Key, value string) error {
	return b.store.Set(ctx, b.session, key, value)
}

func (b *boundKV) Delete(ctx context.Context, key Key) error {
	return b.store.Delete(ctx, b.session, key)
}

// GetJSON decodes the value at key into out. It reports false when the key
// is absent.
func GetJSON(ctx context.Context, kv KV, key Key, out any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, eris.Wrapf(err, "clientstore: decode %s", key)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, kv KV, key Key, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "clientstore: encode %s", key)
	}
	return kv.Set(ctx, key, string(blob))
}

// Options selects and configures a backend for Open.
type Options struct {
	Driver    string
	Path      string
	DSN       string
	RedisAddr string
	TTL       time.Duration // 0 keeps values forever
}

// Open constructs the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		store, err = asStore(NewFileStore(opts.Path))
	case "sqlite":
		store, err = asStore(NewSQLiteStore(opts.Path))
	case "redis":
		store, err = asStore(NewRedisStore(ctx, opts.RedisAddr, opts.TTL))
	case "postgres":
		store, err = asStore(NewPostgresStore(ctx, opts.DSN))
	default:
		return nil, eris.Errorf("clientstore: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

func asStore[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
