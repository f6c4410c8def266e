package cli

import (
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rcliao/temporal-kv/internal/cache"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "cache-server",
		Short: "Run the shared read-cache daemon on a Unix socket",
		Long:  "Run the shared read-cache daemon. Point servers at it with cache.backend=socket so their invalidations reach each other.",
		Run:   runCacheServer,
	}

	cmd.Flags().String("socket", "", "Socket path (default: $TEMPORAL_KV_CACHE_SOCK or ~/.temporal-kv/cache.sock)")

	RootCmd.AddCommand(cmd)
}

func runCacheServer(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)

	sock, _ := cmd.Flags().GetString("socket")
	if sock == "" {
		sock = cfg.Cache.Socket
	}

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(sock), 0o755)
	_ = os.Remove(sock)

	l, err := net.Listen("unix", sock)
	if err != nil {
		exitErr("listen", err)
	}
	_ = os.Chmod(sock, 0o600)

	ttl, _ := cfg.CacheTTL()
	kv, err := cache.Open(cfg.Cache.Path, cache.Options{DefaultTTL: ttl})
	if err != nil {
		l.Close()
		exitErr("open cache", err)
	}
	defer kv.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("cache daemon listening", "socket", sock, "db", cfg.Cache.Path)
	if err := cache.Serve(ctx, l, kv, logger); err != nil {
		exitErr("serve", err)
	}
}
