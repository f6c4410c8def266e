package temporal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rcliao/temporal-kv/internal/model"
)

func TestWriteCreatesKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setClock(1700000000)

	res, err := f.svc.Write(ctx, "key", model.MustValue("Value"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if res.Key != "key" || res.Value.String() != `"Value"` {
		t.Errorf("unexpected result %+v", res)
	}
	if !res.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("expected timestamp from clock, got %v", res.Timestamp)
	}

	k, err := f.store.FindKeyByName(ctx, "key")
	if err != nil {
		t.Fatalf("find key: %v", err)
	}
	if len(k.ValueRefs) != 1 {
		t.Errorf("expected 1 linked value, got %d", len(k.ValueRefs))
	}
}

func TestWriteReusesKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.setClock(100)
	f.svc.Write(ctx, "k", model.MustValue(1))
	f.setClock(200)
	f.svc.Write(ctx, "k", model.MustValue(2))

	st, err := f.store.Stats(ctx, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Keys != 1 || st.Values != 2 {
		t.Errorf("expected 1 key/2 values, got %d/%d", st.Keys, st.Values)
	}
}

func TestWriteTimestampsStayIncreasing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	f.setClock(200)
	first, _ := f.svc.Write(ctx, "k", model.MustValue("first"))
	// Clock goes backwards, then stands still.
	f.setClock(100)
	second, err := f.svc.Write(ctx, "k", model.MustValue("second"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	third, err := f.svc.Write(ctx, "k", model.MustValue("third"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	if !second.Timestamp.After(first.Timestamp) || !third.Timestamp.After(second.Timestamp) {
		t.Errorf("expected increasing timestamps, got %v %v %v", first.Timestamp, second.Timestamp, third.Timestamp)
	}

	got, err := f.svc.Read(ctx, "k", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Value.String() != `"third"` {
		t.Errorf("expected last write to win, got %s", got.Value)
	}
}

func TestWriteInvalidatesOnlyThatKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.setClock(100)
	f.svc.Write(ctx, "a", model.MustValue(1))
	f.svc.Write(ctx, "a:b", model.MustValue(1))

	f.svc.Read(ctx, "a", nil)
	f.svc.Read(ctx, "a", ptr(100))
	f.svc.Read(ctx, "a:b", nil)

	if keys, _ := f.cache.Keys(keyPrefix("a")); len(keys) != 2 {
		t.Fatalf("expected 2 cached reads for a, got %v", keys)
	}

	f.setClock(200)
	if _, err := f.svc.Write(ctx, "a", model.MustValue(2)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if keys, _ := f.cache.Keys(keyPrefix("a")); len(keys) != 0 {
		t.Errorf("expected reads of a to be invalidated, got %v", keys)
	}
	if keys, _ := f.cache.Keys(keyPrefix("a:b")); len(keys) != 1 {
		t.Errorf("expected read of a:b to survive, got %v", keys)
	}
	if got := f.metrics.Snapshot().Invalidations; got != 2 {
		t.Errorf("expected 2 invalidations, got %d", got)
	}
}

func TestWriteSucceedsWhenInvalidationFails(t *testing.T) {
	f := newFixture(t, downKV{})

	res, err := f.svc.Write(context.Background(), "k", model.MustValue(true))
	if err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}
	if res.Value.String() != "true" {
		t.Errorf("unexpected value %s", res.Value)
	}
}

func TestWriteStorageError(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Close()

	_, err := f.svc.Write(context.Background(), "k", model.MustValue(1))
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestWriteRequiresKey(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.svc.Write(context.Background(), "", model.MustValue(1)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}
