// Package store provides the durable temporal storage interface and SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/rcliao/temporal-kv/internal/model"
)

// ValueQuery bounds a lookup of a key's value entries.
type ValueQuery struct {
	// MaxTimestamp, when set, excludes entries whose timestamp is after it.
	MaxTimestamp *time.Time
	// Limit caps the number of returned entries; 0 means no limit.
	Limit int
}

// Reader is the read side of the durable store.
type Reader interface {
	// FindKeyByName returns the key record, or ErrNotFound.
	FindKeyByName(ctx context.Context, name string) (*model.Key, error)

	// FindValuesForKey returns entries for the key newest first.
	// Entries sharing a timestamp are ordered by creation, latest first.
	FindValuesForKey(ctx context.Context, keyID string, q ValueQuery) ([]model.ValueEntry, error)
}

// Writer is the write side of the durable store. It is only handed out
// inside Update, so every call made through it commits or rolls back together.
type Writer interface {
	Reader

	// CreateKey inserts a new key. Returns ErrConflict if the name exists.
	CreateKey(ctx context.Context, name string) (*model.Key, error)

	// AppendValue inserts a new value entry for the key.
	// Returns ErrConflict if the key already has an entry at ts.
	AppendValue(ctx context.Context, keyID string, value model.Value, ts time.Time) (*model.ValueEntry, error)

	// LinkValueToKey appends valueID to the key's ordered value list.
	LinkValueToKey(ctx context.Context, keyID, valueID string) error
}

// Store defines the durable temporal storage interface.
type Store interface {
	Reader

	// Update runs fn in a single transaction.
	Update(ctx context.Context, fn func(w Writer) error) error

	// History returns every entry recorded for the named key, newest first.
	History(ctx context.Context, name string) ([]model.HistoryEntry, error)

	// Close closes the store.
	Close() error
}
