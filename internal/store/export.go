package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rcliao/temporal-kv/internal/model"
)

// ExportAll returns every recorded entry, optionally filtered by key name prefix.
// Entries are ordered by key name, then oldest first.
func (s *SQLiteStore) ExportAll(ctx context.Context, prefix string) ([]model.HistoryEntry, error) {
	where := []string{"1 = 1"}
	args := []any{}

	if prefix != "" {
		where = append(where, "instr(k.name, ?) = 1")
		args = append(args, prefix)
	}

	query := `SELECT k.name, v.value, v.ts
	          FROM keys k
	          INNER JOIN key_values kv ON kv.key_id = k.id
	          INNER JOIN value_entries v ON v.id = kv.value_id
	          WHERE ` + strings.Join(where, " AND ") + ` ORDER BY k.name, v.ts, kv.position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var value string
		var ts int64
		if err := rows.Scan(&e.Key, &value, &ts); err != nil {
			return nil, err
		}
		e.Value = model.Value(value)
		e.Timestamp = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Import appends entries from an export, preserving their timestamps.
// Entries without a timestamp are recorded at the current time.
// Skips duplicates (same key+timestamp).
func (s *SQLiteStore) Import(ctx context.Context, entries []model.HistoryEntry) (int, error) {
	imported := 0
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}
		if !ValidTimestamp(e.Timestamp) {
			return imported, fmt.Errorf("import %q: timestamp %s out of range", e.Key, e.Timestamp.Format(time.RFC3339))
		}
		err := s.Update(ctx, func(w Writer) error {
			k, err := w.FindKeyByName(ctx, e.Key)
			if errors.Is(err, ErrNotFound) {
				k, err = w.CreateKey(ctx, e.Key)
			}
			if err != nil {
				return err
			}
			v, err := w.AppendValue(ctx, k.ID, e.Value, e.Timestamp)
			if err != nil {
				return err
			}
			return w.LinkValueToKey(ctx, k.ID, v.ID)
		})
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
