package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/config"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/gateway"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/handlers"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/middleware"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/models"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/notify"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/repository"
	"github.com/kavishkanimsara/HustleHut-sub001/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies are the long-lived collaborators owned by the process.
type Dependencies struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Reaper *services.ExpiryReaper
	Sender notify.Sender
	Logger zerolog.Logger
}

func RegisterRoutes(app *fiber.App, deps Dependencies) {
	cfg := deps.Config
	db := deps.DB

	userRepo := repository.NewUserRepository(db)
	coachProfileRepo := repository.NewCoachProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	signer := gateway.NewSigner(cfg.Gateway)
	if !signer.Configured() {
		deps.Logger.Warn().Msg("PAYHERE_MERCHANT_ID or PAYHERE_MERCHANT_SECRET unset, payment notifications will be refused")
	}

	authHandler := handlers.NewAuthHandler(db, userRepo, coachProfileRepo, cfg.JWTSecret)
	sessionService := services.NewSessionService(
		db,
		sessionRepo,
		paymentRepo,
		userRepo,
		coachProfileRepo,
		deps.Reaper,
		signer,
		services.LedgerRefunder{},
		deps.Sender,
		deps.Logger.With().Str("component", "sessions").Logger(),
	)
	sessionHandler := handlers.NewSessionHandler(sessionService, deps.Logger)
	paymentService := services.NewPaymentService(
		db,
		userRepo,
		deps.Reaper,
		cfg.PlatformFeeRate,
		deps.Sender,
		deps.Logger.With().Str("component", "payments").Logger(),
	)
	paymentHandler := handlers.NewPaymentHandler(paymentService, signer, deps.Logger)
	withdrawalService := services.NewWithdrawalService(
		db,
		withdrawalRepo,
		deps.Logger.With().Str("component", "withdrawals").Logger(),
	)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	api.Post("/payments/notify", paymentHandler.Notify)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	sessions := authProtected.Group("/sessions")
	sessions.Post("", middleware.RequireRole(models.RoleClient), sessionHandler.ReserveSlot)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id/slot", middleware.RequireRole(models.RoleClient), sessionHandler.RescheduleSlot)
	sessions.Post("/:id/accept", middleware.RequireRole(models.RoleCoach), sessionHandler.AcceptSession)
	sessions.Post("/:id/finish", middleware.RequireRole(models.RoleClient), sessionHandler.FinishSession)
	sessions.Post("/:id/cancel", sessionHandler.CancelSession)

	coaches := authProtected.Group("/coaches")
	coaches.Get("/:username/slots", sessionHandler.ListCoachSlots)

	withdrawals := authProtected.Group("/withdrawals", middleware.RequireRole(models.RoleCoach))
	withdrawals.Get("", withdrawalHandler.ListWithdrawals)

	admin := authProtected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Post("/withdrawals/sweep", withdrawalHandler.SweepWithdrawals)
}
