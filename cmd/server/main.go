package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/config"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/database"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/notify"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/repository"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/routes"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
	applog "github.com/kavishkanimsara/HustleHut-sub001/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := applog.New()
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := applog.NewWithConfig(applog.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "hustlehut-api",
		Env:     cfg.AppEnv,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal().Msg("DB_URL is required")
	}
	db, err := database.Connect(ctx, cfg.DBUrl, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// 3. Background expiry of unpaid reservations
	reaper := services.NewExpiryReaper(
		repository.NewSessionRepository(db),
		cfg.PendingExpiry,
		log.With().Str("component", "expiry_reaper").Logger(),
	)
	go reaper.Run(ctx, cfg.ExpirySweepInterval)

	var sender notify.Sender = notify.NewLogSender(log.With().Str("component", "mail").Logger())
	if cfg.SMTPEnabled() {
		smtpSender, err := notify.NewSMTPSender(cfg.SMTP)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure smtp")
		}
		sender = smtpSender
	}

	// 4. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, routes.Dependencies{
		Config: cfg,
		DB:     db,
		Reaper: reaper,
		Sender: sender,
		Logger: log,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	// 5. Start Server
	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
