package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/config"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/database"
	applog "github.com/kavishkanimsara/HustleHut-sub001/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coachctl",
	Short: "Operate the HustleHut session engine",
	Long: `coachctl runs the operator tasks of the HustleHut session engine:
schema migrations, the coach withdrawal sweep and the expiry sweep for
unpaid reservations. It reads the same environment as the API server.`,
	SilenceUsage: true,
}

func loadRuntime(ctx context.Context, component string) (*config.Config, *pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := applog.NewWithConfig(applog.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "coachctl",
		Env:     cfg.AppEnv,
	}).With().Str("component", component).Logger()

	if cfg.DBUrl == "" {
		return nil, nil, log, fmt.Errorf("DB_URL is required")
	}
	db, err := database.Connect(ctx, cfg.DBUrl, log)
	if err != nil {
		return nil, nil, log, err
	}
	return cfg, db, log, nil
}
