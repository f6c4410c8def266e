package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rcliao/temporal-kv/internal/server"
	"github.com/rcliao/temporal-kv/internal/store"
	"github.com/rcliao/temporal-kv/internal/temporal"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the /object HTTP API",
		Run:   runServe,
	}

	cmd.Flags().StringP("addr", "a", "", "Listen address (default: $TEMPORAL_KV_ADDR or :8080)")

	RootCmd.AddCommand(cmd)
}

type serveStats struct {
	Store *store.Stats             `json:"store"`
	Cache temporal.CounterSnapshot `json:"cache"`
}

func runServe(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Addr
	}

	stats := func(ctx context.Context) (any, error) {
		st, err := a.store.Stats(ctx, a.cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return serveStats{Store: st, Cache: a.metrics.Snapshot()}, nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.svc, a.logger, stats)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		a.Close()
		exitErr("serve", err)
	}
}
