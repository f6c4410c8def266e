package temporal

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rcliao/temporal-kv/internal/cache"
	"github.com/rcliao/temporal-kv/internal/store"
)

type fixture struct {
	svc     *Service
	store   *store.SQLiteStore
	cache   cache.KV
	metrics *Counters
	now     time.Time
}

// setClock pins write timestamps to unix seconds sec.
func (f *fixture) setClock(sec int64) {
	f.now = time.Unix(sec, 0)
}

func newFixture(t *testing.T, kv cache.KV) *fixture {
	t.Helper()
	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if kv == nil {
		kv = newBoltKV(t)
	}

	f := &fixture{store: s, cache: kv, metrics: &Counters{}, now: time.Now()}
	f.svc = NewService(s, kv, Options{Metrics: f.metrics})
	f.svc.Writer().Now = func() time.Time { return f.now }
	return f
}

func newBoltKV(t *testing.T) *cache.Store {
	t.Helper()
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.bbolt"), cache.Options{})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

var errDown = errors.New("connection refused")

// downKV fails every operation.
type downKV struct{}

func (downKV) Get(string) ([]byte, error)              { return nil, errDown }
func (downKV) Put(string, []byte, time.Duration) error { return errDown }
func (downKV) Delete(string) error                     { return errDown }
func (downKV) Keys(string) ([]string, error)           { return nil, errDown }
func (downKV) DeletePrefix(string) (int, error)        { return 0, errDown }

// countingKV records traffic to an underlying KV.
type countingKV struct {
	cache.KV
	gets atomic.Int64
	puts atomic.Int64
}

func (c *countingKV) Get(key string) ([]byte, error) {
	c.gets.Add(1)
	return c.KV.Get(key)
}

func (c *countingKV) Put(key string, value []byte, ttl time.Duration) error {
	c.puts.Add(1)
	return c.KV.Put(key, value, ttl)
}

func ptr(n int64) *int64 { return &n }
