package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rcliao/temporal-kv/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	read *conn
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, read: &conn{q: db}}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

var (
	minStoredTime = time.Unix(0, math.MinInt64)
	maxStoredTime = time.Unix(0, math.MaxInt64)
)

// ValidTimestamp reports whether ts can be stored.
func ValidTimestamp(ts time.Time) bool {
	return !ts.Before(minStoredTime) && !ts.After(maxStoredTime)
}

func newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS keys (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS value_entries (
		id          TEXT PRIMARY KEY,
		key_id      TEXT NOT NULL REFERENCES keys(id),
		value       TEXT NOT NULL,
		ts          INTEGER NOT NULL,
		UNIQUE (key_id, ts)
	);
	CREATE INDEX IF NOT EXISTS idx_value_entries_key_ts ON value_entries(key_id, ts DESC);

	CREATE TABLE IF NOT EXISTS key_values (
		key_id      TEXT NOT NULL REFERENCES keys(id),
		position    INTEGER NOT NULL,
		value_id    TEXT NOT NULL UNIQUE REFERENCES value_entries(id),
		PRIMARY KEY (key_id, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Update runs fn inside a transaction. Any error returned by fn rolls back
// every write made through the Writer.
func (s *SQLiteStore) Update(ctx context.Context, fn func(w Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&conn{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindKeyByName(ctx context.Context, name string) (*model.Key, error) {
	return s.read.FindKeyByName(ctx, name)
}

func (s *SQLiteStore) FindValuesForKey(ctx context.Context, keyID string, q ValueQuery) ([]model.ValueEntry, error) {
	return s.read.FindValuesForKey(ctx, keyID, q)
}

// History returns every linked entry for the named key, newest first.
func (s *SQLiteStore) History(ctx context.Context, name string) ([]model.HistoryEntry, error) {
	k, err := s.FindKeyByName(ctx, name)
	if err != nil {
		return nil, err
	}
	entries, err := s.FindValuesForKey(ctx, k.ID, ValueQuery{})
	if err != nil {
		return nil, err
	}

	out := make([]model.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.HistoryEntry{Key: k.Name, Value: e.Value, Timestamp: e.Timestamp})
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements Writer over a querier.
type conn struct {
	q querier
}

func (c *conn) FindKeyByName(ctx context.Context, name string) (*model.Key, error) {
	var k model.Key
	var createdAt string
	err := c.q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM keys WHERE name = ?`, name).Scan(&k.ID, &k.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("key %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find key: %w", err)
	}
	k.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	rows, err := c.q.QueryContext(ctx,
		`SELECT value_id FROM key_values WHERE key_id = ? ORDER BY position`, k.ID)
	if err != nil {
		return nil, fmt.Errorf("find value refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		k.ValueRefs = append(k.ValueRefs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &k, nil
}

func (c *conn) FindValuesForKey(ctx context.Context, keyID string, q ValueQuery) ([]model.ValueEntry, error) {
	query := `SELECT v.id, v.key_id, v.value, v.ts
		FROM value_entries v
		INNER JOIN key_values kv ON kv.value_id = v.id
		WHERE kv.key_id = ?`
	args := []any{keyID}

	// Stored timestamps are int64 nanoseconds; bounds outside that range
	// either exclude everything or nothing.
	if q.MaxTimestamp != nil && !q.MaxTimestamp.After(maxStoredTime) {
		if q.MaxTimestamp.Before(minStoredTime) {
			return nil, nil
		}
		query += ` AND v.ts <= ?`
		args = append(args, q.MaxTimestamp.UnixNano())
	}
	query += ` ORDER BY v.ts DESC, kv.position DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find values: %w", err)
	}
	defer rows.Close()

	var entries []model.ValueEntry
	for rows.Next() {
		var e model.ValueEntry
		var value string
		var ts int64
		if err := rows.Scan(&e.ID, &e.KeyID, &value, &ts); err != nil {
			return nil, err
		}
		e.Value = model.Value(value)
		e.Timestamp = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *conn) CreateKey(ctx context.Context, name string) (*model.Key, error) {
	now := time.Now().UTC()
	k := &model.Key{ID: newID(), Name: name, CreatedAt: now}

	_, err := c.q.ExecContext(ctx,
		`INSERT INTO keys (id, name, created_at) VALUES (?, ?, ?)`,
		k.ID, k.Name, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert key: %w", classify(err))
	}
	return k, nil
}

func (c *conn) AppendValue(ctx context.Context, keyID string, value model.Value, ts time.Time) (*model.ValueEntry, error) {
	e := &model.ValueEntry{ID: newID(), KeyID: keyID, Value: value, Timestamp: ts.UTC()}

	_, err := c.q.ExecContext(ctx,
		`INSERT INTO value_entries (id, key_id, value, ts) VALUES (?, ?, ?, ?)`,
		e.ID, keyID, string(value), ts.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert value: %w", classify(err))
	}
	return e, nil
}

func (c *conn) LinkValueToKey(ctx context.Context, keyID, valueID string) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO key_values (key_id, position, value_id)
		 SELECT ?, COALESCE(MAX(position), 0) + 1, ? FROM key_values WHERE key_id = ?`,
		keyID, valueID, keyID)
	if err != nil {
		return fmt.Errorf("link value: %w", classify(err))
	}
	return nil
}

// classify maps SQLite constraint violations to ErrConflict.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}
