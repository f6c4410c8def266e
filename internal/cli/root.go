// Package cli implements the temporal-kv CLI commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rcliao/temporal-kv/internal/cache"
	"github.com/rcliao/temporal-kv/internal/config"
	"github.com/rcliao/temporal-kv/internal/store"
	"github.com/rcliao/temporal-kv/internal/temporal"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "temporal-kv",
	Short: "Temporal key-value store",
	Long:  "A key-value store that keeps every value ever written. Read the latest value or the value as of any past second.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $TEMPORAL_KV_DB or ~/.temporal-kv/store.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Debug logging")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DBPath)
}

// openCache returns the configured read cache and its closer, if any.
func openCache(cfg *config.Config, logger *slog.Logger) (cache.KV, io.Closer, error) {
	switch cfg.Cache.Backend {
	case config.CacheSocket:
		c := cache.NewClient(cfg.Cache.Socket)
		if err := c.Ping(); err != nil {
			// Reads degrade to the store while the daemon is down.
			logger.Warn("cache daemon unreachable", "socket", cfg.Cache.Socket, "error", err)
		}
		return c, nil, nil
	case config.CacheNone:
		return cache.Nop{}, nil, nil
	default:
		ttl, _ := cfg.CacheTTL()
		s, err := cache.Open(cfg.Cache.Path, cache.Options{DefaultTTL: ttl})
		if err != nil {
			// The bolt file is locked by one process at a time; others run
			// uncached rather than refuse to start.
			logger.Warn("cache unavailable, running uncached", "path", cfg.Cache.Path, "error", err)
			return cache.Nop{}, nil, nil
		}
		return s, s, nil
	}
}

// app bundles the opened backends for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.SQLiteStore
	cache   cache.KV
	closer  io.Closer
	metrics *temporal.Counters
	svc     *temporal.Service
}

func openApp() *app {
	cfg := loadConfig()
	logger := newLogger(cfg)

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	kv, closer, err := openCache(cfg, logger)
	if err != nil {
		s.Close()
		exitErr("open cache", err)
	}

	ttl, _ := cfg.CacheTTL()
	metrics := &temporal.Counters{}
	svc := temporal.NewService(s, kv, temporal.Options{CacheTTL: ttl, Logger: logger, Metrics: metrics})
	return &app{cfg: cfg, logger: logger, store: s, cache: kv, closer: closer, metrics: metrics, svc: svc}
}

func (a *app) Close() {
	if a.closer != nil {
		a.closer.Close()
	}
	a.store.Close()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
