package store

import (
	"context"
	"fmt"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string     `json:"db_path"`
	DBSizeBytes int64      `json:"db_size_bytes"`
	Keys        int        `json:"keys"`
	Values      int        `json:"values"`
	Largest     []KeyStats `json:"largest,omitempty"`
}

// KeyStats holds per-key history counts.
type KeyStats struct {
	Name     string `json:"name"`
	Versions int    `json:"versions"`
}

// Stats returns database statistics. Largest lists the keys with the
// longest histories, at most ten.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM keys`).Scan(&st.Keys); err != nil {
		return st, fmt.Errorf("count keys: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM key_values`).Scan(&st.Values); err != nil {
		return st, fmt.Errorf("count values: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT k.name, COUNT(kv.value_id) AS cnt
		FROM keys k INNER JOIN key_values kv ON kv.key_id = k.id
		GROUP BY k.id ORDER BY cnt DESC, k.name LIMIT 10`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ks KeyStats
		if err := rows.Scan(&ks.Name, &ks.Versions); err != nil {
			return st, err
		}
		st.Largest = append(st.Largest, ks)
	}

	return st, rows.Err()
}
