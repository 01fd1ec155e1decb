// Command decree runs The Daily Decree game service and its save tooling.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/daily-decree/internal/config"
	"github.com/talgya/daily-decree/internal/game"
	"github.com/talgya/daily-decree/internal/llm"
	"github.com/talgya/daily-decree/internal/persistence"
)

func main() {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "decree",
		Short:         "The Daily Decree: a political newspaper game",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.Level(),
			})))
			return nil
		},
	}

	root.AddCommand(
		serveCmd(&cfg),
		savesCmd(&cfg),
		exportCmd(&cfg),
		importCmd(&cfg),
		deleteCmd(&cfg),
		probeCmd(&cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// providers builds the primary and the backups in chain order.
func providers(cfg *config.Config) (*llm.GeminiClient, []llm.Provider) {
	gemini := llm.NewGeminiClient(cfg.PrimaryKey(), cfg.TextModel, cfg.ImageModel)
	if !gemini.Enabled() {
		slog.Warn("API_KEY not set; every generation request will fail")
	}

	var backups []llm.Provider
	for _, p := range llm.NewOpenRouterProviders(llm.OpenRouterConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterURL,
		Models:  cfg.BackupModels,
		Referer: cfg.Referer,
		Title:   cfg.AppTitle,
	}) {
		backups = append(backups, p)
	}
	if len(backups) == 0 {
		slog.Info("OPENROUTER_API_KEY not set; running without backup models")
	}
	return gemini, backups
}

// deps wires the generation chain and illustrator around one shared limiter.
func deps(cfg *config.Config, limiter *llm.RateLimiter) game.Deps {
	gemini, backups := providers(cfg)
	chain := llm.NewChain(gemini, limiter,
		llm.WithBackups(backups...),
		llm.WithTimeouts(cfg.PrimaryTimeout, cfg.BackupTimeout),
	)

	d := game.Deps{Generator: chain}
	if cfg.Images && gemini.Enabled() {
		d.Illustrator = llm.NewIllustrator(gemini, limiter, cfg.ImageTimeout)
	}
	slog.Info("generation chain ready",
		"primary", gemini.Model(),
		"backups", len(backups),
		"images", d.Illustrator != nil,
	)
	return d
}

// openStore opens the configured save store. The returned close func is never nil.
func openStore(ctx context.Context, cfg *config.Config) (game.Store, func() error, error) {
	switch cfg.Store {
	case "redis":
		rs, err := persistence.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("save store opened", "store", "redis")
		return rs, rs.Close, nil
	case "none":
		slog.Warn("STORE=none; games will not be saved")
		return nil, func() error { return nil }, nil
	default:
		db, err := persistence.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("save store opened", "store", "sqlite", "path", cfg.DBPath)
		return db, db.Close, nil
	}
}
