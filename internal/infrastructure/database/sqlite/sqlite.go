// Package sqlite opens a local SQLite database (pure-Go modernc driver) and
// stores quiz snapshots in it. It is the CLI's default backend, the
// single-machine stand-in for the browser's local storage.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS quiz_snapshots (
	storage_key TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	saved_at    TEXT NOT NULL,
	updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`

type options struct {
	busyTimeoutMS int
	synchronous   string
}

type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeoutMS = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: NORMAL.
func WithSynchronous(mode string) Option { return func(o *options) { o.synchronous = mode } }

// Open opens path with foreign keys on, WAL journaling, a busy timeout and
// NORMAL sync applied on every pooled connection, then creates the schema.
// Parent directories are created as needed.
func Open(ctx context.Context, path string, opts ...Option) (*sql.DB, error) {
	o := options{busyTimeoutMS: 10_000, synchronous: "NORMAL"}
	for _, opt := range opts {
		opt(&o)
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create sqlite directory").WithDetail(path)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, o))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open sqlite database").WithDetail(path)
	}
	if path == MemoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create sqlite schema").WithDetail(path)
	}
	return db, nil
}

func dsn(path string, o options) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", o.busyTimeoutMS))
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", o.synchronous))
	return "file:" + path + "?" + q.Encode()
}
