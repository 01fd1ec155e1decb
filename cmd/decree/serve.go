package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/daily-decree/internal/api"
	"github.com/talgya/daily-decree/internal/config"
	"github.com/talgya/daily-decree/internal/game"
	"github.com/talgya/daily-decree/internal/llm"
)

func serveCmd(cfg **config.Config) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if cmd.Flags().Changed("port") {
				c.Port = port
			}
			return serve(cmd.Context(), c)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("The Daily Decree newsroom starting", "port", cfg.Port, "store", cfg.Store)

	// ── Store ─────────────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── Generation ────────────────────────────────────────────────────
	limiter := llm.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	games := game.NewManager(deps(cfg, limiter), store)

	// ── HTTP API ──────────────────────────────────────────────────────
	warnOpenAdmin(cfg)
	srv := (&api.Server{
		Games:    games,
		Limiter:  limiter,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
		Origins:  cfg.Origins(),
	}).Start()

	// ── Shutdown ──────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	slog.Info("newsroom closed", "sessions", games.Count())
	return nil
}

// warnOpenAdmin logs when save import and delete need no token. The server
// binds every interface, so those routes are reachable from the network.
func warnOpenAdmin(cfg *config.Config) {
	if cfg.AdminKey != "" {
		return
	}
	slog.Warn("DECREE_ADMIN_KEY not set; save import and delete are open to any client",
		"addr", fmt.Sprintf(":%d", cfg.Port))
}
