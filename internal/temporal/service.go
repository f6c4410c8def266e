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

// Options configures a Service.
type Options struct {
	// CacheTTL bounds how long a cached read survives a missed invalidation.
	// Zero means cached reads only leave on invalidation.
	CacheTTL time.Duration
	Logger   *slog.Logger
	Metrics  Metrics
}

// Service is the read/write boundary used by the transports.
type Service struct {
	store  store.Store
	cache  cache.KV
	reader *Reader
	writer *Writer
	logger *slog.Logger
}

func NewService(s store.Store, kv cache.KV, opts Options) *Service {
	if kv == nil {
		kv = cache.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := opts.Metrics
	if m == nil {
		m = NoopMetrics{}
	}

	reader := NewReader(NewResolver(s), kv, opts.CacheTTL, logger, m)
	writer := NewWriter(s, kv, logger, m)
	writer.OnCommit = func(string) { reader.Invalidated() }

	return &Service{store: s, cache: kv, reader: reader, writer: writer, logger: logger}
}

// Writer exposes the write coordinator, e.g. to replace its clock.
func (s *Service) Writer() *Writer { return s.writer }

// Read returns the value of name as of asOf (unix seconds), or the latest
// value when asOf is nil. Fails with ErrKeyNotFound, ErrValueNotFound or ErrStorage.
func (s *Service) Read(ctx context.Context, name string, asOf *int64) (*model.ReadResult, error) {
	if name == "" {
		return nil, ErrInvalidKey
	}
	return s.reader.Read(ctx, name, asOf)
}

// Write records one value under name. Fails with ErrStorage.
func (s *Service) Write(ctx context.Context, name string, value model.Value) (*model.WriteResult, error) {
	if name == "" {
		return nil, ErrInvalidKey
	}
	return s.writer.Write(ctx, name, value)
}

// History returns every entry of name, newest first. It bypasses the cache.
func (s *Service) History(ctx context.Context, name string) ([]model.HistoryEntry, error) {
	if name == "" {
		return nil, ErrInvalidKey
	}
	hist, err := s.store.History(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return hist, nil
}

// Importer is implemented by stores that can bulk-load exported history.
type Importer interface {
	Import(ctx context.Context, entries []model.HistoryEntry) (int, error)
}

// Import loads exported entries and invalidates the cached reads of every
// key they touch.
func (s *Service) Import(ctx context.Context, entries []model.HistoryEntry) (int, error) {
	imp, ok := s.store.(Importer)
	if !ok {
		return 0, fmt.Errorf("%w: store does not support import", ErrStorage)
	}
	n, err := imp.Import(ctx, entries)
	if n > 0 {
		s.reader.Invalidated()
		seen := map[string]bool{}
		for _, e := range entries {
			if !seen[e.Key] {
				seen[e.Key] = true
				s.writer.invalidate(e.Key)
			}
		}
	}
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return n, nil
}
