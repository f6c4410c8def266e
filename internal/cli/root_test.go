package cli

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/rcliao/temporal-kv/internal/cache"
	"github.com/rcliao/temporal-kv/internal/config"
)

func TestOpenCacheLockedFallsBackToNop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bbolt")
	held, err := cache.Open(path, cache.Options{})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer held.Close()

	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.CacheBolt
	cfg.Cache.Path = path

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv, closer, err := openCache(&cfg, logger)
	if err != nil {
		t.Fatalf("expected a locked cache to degrade, got %v", err)
	}
	if closer != nil {
		t.Errorf("expected no closer for the fallback cache")
	}
	if _, ok := kv.(cache.Nop); !ok {
		t.Errorf("expected cache.Nop, got %T", kv)
	}
}

func TestOpenCacheBolt(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cache.Backend = config.CacheBolt
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.bbolt")

	kv, closer, err := openCache(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if closer == nil {
		t.Fatal("expected the bolt cache to be closed by the caller")
	}
	defer closer.Close()
	if _, ok := kv.(*cache.Store); !ok {
		t.Errorf("expected *cache.Store, got %T", kv)
	}
}
