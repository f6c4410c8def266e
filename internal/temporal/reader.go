package temporal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rcliao/temporal-kv/internal/cache"
	"github.com/rcliao/temporal-kv/internal/model"
)

// Reader serves reads cache-aside: cache first, resolver on miss, then
// populate. Cache failures degrade to a miss.
type Reader struct {
	resolver *Resolver
	cache    cache.KV
	ttl      time.Duration
	logger   *slog.Logger
	metrics  Metrics
	group    singleflight.Group

	// epoch advances on every local write. In-flight loads started before a
	// write are neither joined nor allowed to populate the cache after it.
	epoch atomic.Uint64
}

func NewReader(r *Resolver, kv cache.KV, ttl time.Duration, logger *slog.Logger, m Metrics) *Reader {
	if kv == nil {
		kv = cache.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m == nil {
		m = NoopMetrics{}
	}
	return &Reader{resolver: r, cache: kv, ttl: ttl, logger: logger, metrics: m}
}

// Read returns the value of name as of asOf (unix seconds), or the latest
// value when asOf is nil.
func (r *Reader) Read(ctx context.Context, name string, asOf *int64) (*model.ReadResult, error) {
	key := cacheKey(name, asOf)

	if res, ok := r.lookup(key); ok {
		r.metrics.Hit()
		return res, nil
	}
	r.metrics.Miss()

	// Concurrent misses for the same cache key share one store read.
	epoch := r.epoch.Load()
	flight := key + "#" + strconv.FormatUint(epoch, 10)
	ch := r.group.DoChan(flight, func() (any, error) {
		return r.load(context.WithoutCancel(ctx), key, name, asOf, epoch)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.ReadResult), nil
	}
}

func (r *Reader) lookup(key string) (*model.ReadResult, bool) {
	b, err := r.cache.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, cache.ErrExpired) {
			r.logger.Warn("cache read failed", "cache_key", key, "error", errors.Join(ErrCacheUnavailable, err))
		}
		return nil, false
	}
	var res model.ReadResult
	if err := json.Unmarshal(b, &res); err != nil {
		r.logger.Warn("cache entry undecodable", "cache_key", key, "error", err)
		return nil, false
	}
	return &res, true
}

// Invalidated marks every in-flight load as stale.
func (r *Reader) Invalidated() {
	r.epoch.Add(1)
}

func (r *Reader) load(ctx context.Context, key, name string, asOf *int64, epoch uint64) (*model.ReadResult, error) {
	var bound *time.Time
	if asOf != nil {
		bound = asOfInstant(*asOf)
	}

	entry, err := r.resolver.Resolve(ctx, name, bound)
	if err != nil {
		// Not-found results are never cached.
		return nil, err
	}

	res := &model.ReadResult{Key: name, Value: entry.Value}
	if r.epoch.Load() != epoch {
		return res, nil
	}
	b, err := json.Marshal(res)
	if err == nil {
		err = r.cache.Put(key, b, r.ttl)
	}
	if err != nil {
		r.logger.Warn("cache write failed", "cache_key", key, "error", errors.Join(ErrCacheUnavailable, err))
		return res, nil
	}
	// A write that committed between the check above and Put may have
	// invalidated before our entry landed.
	if r.epoch.Load() != epoch {
		if err := r.cache.Delete(key); err != nil && !errors.Is(err, cache.ErrNotFound) {
			r.logger.Warn("cache delete failed", "cache_key", key, "error", errors.Join(ErrCacheUnavailable, err))
		}
	}
	return res, nil
}
