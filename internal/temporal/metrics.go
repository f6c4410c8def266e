package temporal

import "sync/atomic"

// Metrics receives cache-aside events.
type Metrics interface {
	// Hit is called when a read is answered from the cache.
	Hit()
	// Miss is called when a read falls through to the durable store.
	Miss()
	// Invalidate is called with the number of cache entries dropped by a write.
	Invalidate(n int)
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Invalidate(int) {}

// Counters is a Metrics implementation backed by atomic counters.
type Counters struct {
	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
}

func (c *Counters) Hit()             { c.hits.Add(1) }
func (c *Counters) Miss()            { c.misses.Add(1) }
func (c *Counters) Invalidate(n int) { c.invalidations.Add(int64(n)) }

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Invalidations int64 `json:"invalidations"`
}

func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
	}
}
