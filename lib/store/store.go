// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists the event records in a SQLite database: one
// row per conversation thread, the event serialized as deterministic
// CBOR. Get, Put, and Delete are each atomic per key; the Lock and
// LockPair methods give command handlers the read-modify-write
// serialization they need on top of that.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/gather/lib/codec"
	"github.com/bureau-foundation/gather/lib/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id   TEXT PRIMARY KEY,
	data BLOB NOT NULL
) WITHOUT ROWID;
`

// Config holds the parameters for opening a Store. Path is required.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// file is created if it does not exist. Use ":memory:" with
	// PoolSize 1 for tests.
	Path string

	// PoolSize is the number of connections in the pool. If zero or
	// negative, defaults to max(runtime.NumCPU(), 4).
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Store is the keyed persistent mapping from a thread identifier to
// its event record. Safe for concurrent use.
type Store struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string

	// mu guards locks. Per-key mutexes are created on first use and
	// kept for the life of the process; the set is bounded by the
	// number of distinct threads the bot has seen.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open creates the connection pool, applies the standard pragmas, and
// ensures the schema exists. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
		if poolSize < 4 {
			poolSize = 4
		}
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", cfg.Path, err)
	}

	logger.Info("event store opened", "path", cfg.Path, "pool_size", poolSize)

	return &Store{
		pool:   pool,
		logger: logger,
		path:   cfg.Path,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// prepareConnection applies the standard pragmas and creates the
// schema. Runs once per pooled connection, on first use.
func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("store: creating schema: %w", err)
	}
	return nil
}

// Close closes all connections in the pool.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("store: closing %s: %w", s.path, err)
	}
	s.logger.Info("event store closed", "path", s.path)
	return nil
}

// Get loads the event stored under id. Returns (nil, nil) when no
// event exists for the key.
func (s *Store) Get(ctx context.Context, id event.ThreadID) (*event.Event, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: take connection: %w", err)
	}
	defer s.pool.Put(conn)

	var data []byte
	err = sqlitex.Execute(conn, `SELECT data FROM events WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id.Key()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			data = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, data)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	if data == nil {
		return nil, nil
	}

	var ev event.Event
	if err := codec.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return &ev, nil
}

// Put stores the event under id, replacing any previous record.
func (s *Store) Put(ctx context.Context, id event.ThreadID, ev *event.Event) error {
	data, err := codec.Marshal(ev)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", id, err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO events (id, data) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data`,
		&sqlitex.ExecOptions{Args: []any{id.Key(), data}})
	if err != nil {
		return fmt.Errorf("store: put %s: %w", id, err)
	}
	return nil
}

// Delete removes the event stored under id. Deleting a missing key is
// a no-op.
func (s *Store) Delete(ctx context.Context, id event.ThreadID) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: take connection: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM events WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id.Key()}})
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// keyLock returns the mutex for a key, creating it on first use.
func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Lock serializes read-modify-write cycles on one key. The returned
// function releases the lock:
//
//	unlock := store.Lock(id)
//	defer unlock()
func (s *Store) Lock(id event.ThreadID) (unlock func()) {
	lock := s.keyLock(id.Key())
	lock.Lock()
	return lock.Unlock
}

// LockPair locks two keys in sorted order, so that two concurrent
// operations touching the same pair cannot deadlock. Used by the move
// command, which reads one key and writes another. Locking the same
// key twice would self-deadlock; callers must pass distinct keys.
func (s *Store) LockPair(a, b event.ThreadID) (unlock func()) {
	first, second := a.Key(), b.Key()
	if first > second {
		first, second = second, first
	}
	firstLock := s.keyLock(first)
	secondLock := s.keyLock(second)
	firstLock.Lock()
	secondLock.Lock()
	return func() {
		secondLock.Unlock()
		firstLock.Unlock()
	}
}
