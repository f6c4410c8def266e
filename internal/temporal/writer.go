package temporal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rcliao/temporal-kv/internal/cache"
	"github.com/rcliao/temporal-kv/internal/model"
	"github.com/rcliao/temporal-kv/internal/store"
)

// Writer appends values and invalidates the cached reads they make stale.
type Writer struct {
	store   store.Store
	cache   cache.KV
	logger  *slog.Logger
	metrics Metrics

	// Now supplies write timestamps. Defaults to time.Now.
	Now func() time.Time
	// OnCommit, if set, runs after the write commits and before invalidation.
	OnCommit func(name string)
}

func NewWriter(s store.Store, kv cache.KV, logger *slog.Logger, m Metrics) *Writer {
	if kv == nil {
		kv = cache.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m == nil {
		m = NoopMetrics{}
	}
	return &Writer{store: s, cache: kv, logger: logger, metrics: m, Now: time.Now}
}

// Write records value under name at the current time, creating the key on
// first use. The key, entry and link are committed together or not at all.
func (w *Writer) Write(ctx context.Context, name string, value model.Value) (*model.WriteResult, error) {
	var entry *model.ValueEntry
	err := w.store.Update(ctx, func(tx store.Writer) error {
		k, err := tx.FindKeyByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			k, err = tx.CreateKey(ctx, name)
		}
		if err != nil {
			return err
		}

		// Keep timestamps strictly increasing per key so the newest write wins.
		ts := w.Now().UTC()
		latest, err := tx.FindValuesForKey(ctx, k.ID, store.ValueQuery{Limit: 1})
		if err != nil {
			return err
		}
		if len(latest) > 0 && !latest[0].Timestamp.Before(ts) {
			ts = latest[0].Timestamp.Add(time.Nanosecond)
		}

		entry, err = tx.AppendValue(ctx, k.ID, value, ts)
		if err != nil {
			return err
		}
		return tx.LinkValueToKey(ctx, k.ID, entry.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if w.OnCommit != nil {
		w.OnCommit(name)
	}
	w.invalidate(name)

	return &model.WriteResult{Key: name, Value: entry.Value, Timestamp: entry.Timestamp}, nil
}

// invalidate drops every cached read of name. Failures are logged only;
// the write is already durable.
func (w *Writer) invalidate(name string) {
	n, err := w.cache.DeletePrefix(keyPrefix(name))
	if err != nil {
		w.logger.Warn("cache invalidation failed", "key", name, "error", err)
		return
	}
	w.metrics.Invalidate(n)
	w.logger.Debug("cache invalidated", "key", name, "entries", n)
}
