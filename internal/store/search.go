package store

import (
	"context"
	"time"

	"github.com/rcliao/temporal-kv/internal/model"
)

// SearchParams holds parameters for listing keys.
type SearchParams struct {
	Query string // substring of the key name; empty matches all
	Limit int
}

// Search returns keys whose name contains the query, each with its latest
// entry, most recently written first.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.HistoryEntry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT k.name, v.value, v.ts
		FROM keys k
		INNER JOIN key_values kv ON kv.key_id = k.id
		INNER JOIN value_entries v ON v.id = kv.value_id
		WHERE instr(k.name, ?) > 0
		  AND kv.position = (
			SELECT kv2.position FROM key_values kv2
			INNER JOIN value_entries v2 ON v2.id = kv2.value_id
			WHERE kv2.key_id = k.id
			ORDER BY v2.ts DESC, kv2.position DESC LIMIT 1
		  )
		ORDER BY v.ts DESC, k.name
		LIMIT ?`, p.Query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var value string
		var ts int64
		if err := rows.Scan(&e.Key, &value, &ts); err != nil {
			return nil, err
		}
		e.Value = model.Value(value)
		e.Timestamp = time.Unix(0, ts).UTC()
		results = append(results, e)
	}
	return results, rows.Err()
}
