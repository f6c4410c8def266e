package temporal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rcliao/temporal-kv/internal/model"
	"github.com/rcliao/temporal-kv/internal/store"
)

func TestResolveKeyNotFound(t *testing.T) {
	f := newFixture(t, nil)
	r := NewResolver(f.store)

	_, err := r.Resolve(context.Background(), "nonexistent", nil)
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestResolveKeyWithoutValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	err := f.store.Update(ctx, func(w store.Writer) error {
		_, err := w.CreateKey(ctx, "empty")
		return err
	})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	_, err = NewResolver(f.store).Resolve(ctx, "empty", nil)
	if !errors.Is(err, ErrValueNotFound) {
		t.Fatalf("expected ErrValueNotFound, got %v", err)
	}
}

func TestResolveAsOf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	r := NewResolver(f.store)

	for i, sec := range []int64{100, 200, 300} {
		f.setClock(sec)
		if _, err := f.svc.Write(ctx, "k", model.MustValue(i)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	cases := []struct {
		asOf time.Time
		want string
	}{
		{time.Unix(100, 0), "0"},
		{time.Unix(199, 0), "0"},
		{time.Unix(200, 0), "1"},
		{time.Unix(250, 0), "1"},
		{time.Unix(1000, 0), "2"},
	}
	for _, c := range cases {
		asOf := c.asOf
		e, err := r.Resolve(ctx, "k", &asOf)
		if err != nil {
			t.Fatalf("resolve %v: %v", asOf, err)
		}
		if e.Value.String() != c.want {
			t.Errorf("as of %d: expected %s, got %s", asOf.Unix(), c.want, e.Value)
		}
	}

	before := time.Unix(99, 0)
	if _, err := r.Resolve(ctx, "k", &before); !errors.Is(err, ErrValueNotFound) {
		t.Errorf("expected ErrValueNotFound before first write, got %v", err)
	}

	latest, err := r.Resolve(ctx, "k", nil)
	if err != nil {
		t.Fatalf("resolve latest: %v", err)
	}
	if latest.Value.String() != "2" {
		t.Errorf("expected latest 2, got %s", latest.Value)
	}
}

func TestResolveFarAsOf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	r := NewResolver(f.store)
	if _, err := f.svc.Write(ctx, "k", model.MustValue("v")); err != nil {
		t.Fatalf("write: %v", err)
	}

	future := time.Unix(253402300799, 0)
	e, err := r.Resolve(ctx, "k", &future)
	if err != nil {
		t.Fatalf("resolve year 9999: %v", err)
	}
	if e.Value.String() != `"v"` {
		t.Errorf("expected v, got %s", e.Value)
	}

	past := time.Unix(-10000000000, 0)
	if _, err := r.Resolve(ctx, "k", &past); !errors.Is(err, ErrValueNotFound) {
		t.Errorf("expected ErrValueNotFound, got %v", err)
	}
}

func TestResolveStorageError(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Close()

	_, err := NewResolver(f.store).Resolve(context.Background(), "k", nil)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
