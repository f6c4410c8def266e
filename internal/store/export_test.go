package store

import (
	"context"
	"testing"
	"time"

	"github.com/rcliao/temporal-kv/internal/model"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	base := time.Unix(1700000000, 0)

	put(t, src, "a", map[string]int{"n": 1}, base)
	put(t, src, "a", map[string]int{"n": 2}, base.Add(time.Second))
	put(t, src, "b", []string{"x"}, base)

	exported, err := src.ExportAll(ctx, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(exported))
	}

	dst := newTestStore(t)
	n, err := dst.Import(ctx, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 imported, got %d", n)
	}

	// Re-importing skips every entry.
	n, err = dst.Import(ctx, exported)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 imported on second pass, got %d", n)
	}

	hist, _ := dst.History(ctx, "a")
	if len(hist) != 2 || hist[0].Value.String() != `{"n":2}` {
		t.Errorf("unexpected history after import: %v", hist)
	}
}

func TestExportPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	put(t, s, "user:1", 1, now)
	put(t, s, "user:2", 2, now)
	put(t, s, "order:1", 3, now)

	got, err := s.ExportAll(ctx, "user:")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Unix(1700000000, 0)

	put(t, s, "a", 1, base)
	put(t, s, "a", 2, base.Add(time.Second))
	put(t, s, "b", 3, base)

	st, err := s.Stats(ctx, "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Keys != 2 || st.Values != 3 {
		t.Errorf("expected 2 keys/3 values, got %d/%d", st.Keys, st.Values)
	}
	if len(st.Largest) == 0 || st.Largest[0].Name != "a" || st.Largest[0].Versions != 2 {
		t.Errorf("unexpected largest: %v", st.Largest)
	}
}

func TestStatsReportsQueryErrors(t *testing.T) {
	s := newTestStore(t)
	s.Close()

	if _, err := s.Stats(context.Background(), ""); err == nil {
		t.Fatal("expected an error from a closed store")
	}
}

func TestImportZeroTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	before := time.Now()

	n, err := s.Import(ctx, []model.HistoryEntry{{Key: "a", Value: model.MustValue(1)}})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 imported, got %d", n)
	}

	hist, _ := s.History(ctx, "a")
	if len(hist) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(hist))
	}
	if ts := hist[0].Timestamp; ts.Before(before.Add(-time.Second)) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("expected a missing timestamp to default to now, got %v", ts)
	}
}

func TestImportRejectsOutOfRangeTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entries := []model.HistoryEntry{
		{Key: "a", Value: model.MustValue(1), Timestamp: time.Unix(1700000000, 0)},
		{Key: "a", Value: model.MustValue(2), Timestamp: time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	n, err := s.Import(ctx, entries)
	if err == nil {
		t.Fatal("expected an error for a timestamp past year 2262")
	}
	if n != 1 {
		t.Errorf("expected the valid entry to be imported, got %d", n)
	}
}
