package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/dlm-community/tournament-service/brackets"
	"github.com/dlm-community/tournament-service/cards"
	"github.com/dlm-community/tournament-service/config"
	"github.com/dlm-community/tournament-service/db"
	"github.com/dlm-community/tournament-service/handlers"
	"github.com/dlm-community/tournament-service/repositories"
	api "github.com/dlm-community/tournament-service/routes"
	"github.com/dlm-community/tournament-service/services"
	"github.com/dlm-community/tournament-service/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, "file://migrations"); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// One context for the background goroutines, canceled on shutdown.
	backgroundCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(backgroundCtx)
	logger.Info("WebSocket hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	reminderRepo := repositories.NewPostgresReminderRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)
	logger.Info("repositories initialized")

	clock := clockwork.NewRealClock()
	announcer := services.NewWebhookAnnouncer(logger)
	cardClient := cards.NewClient(cfg.CardAPIBaseURL)
	metaClient := cards.NewMetaClient(cfg.MetaAPIBaseURL)

	authService := services.NewAuthService(cfg.JWTSecretKey, cfg.APIKeyHash)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		participantRepo,
		matchRepo,
		reminderRepo,
		settingsRepo,
		wsHub,
		announcer,
		logger,
	)
	rosterService := services.NewRosterService(tournamentRepo, participantRepo, settingsRepo, cloudflareUploader, logger)
	scheduleService := services.NewScheduleService(tournamentRepo, matchRepo, reminderRepo, settingsRepo, wsHub, announcer, logger, clock)
	settingsService := services.NewSettingsService(settingsRepo)
	statsService := services.NewStatsService(matchRepo)
	cardService := services.NewCardService(cardClient, metaClient)
	logger.Info("services initialized")

	reminderWorker := services.NewReminderWorker(reminderRepo, settingsRepo, wsHub, announcer, logger, clock, cfg.ReminderPollInterval)
	go reminderWorker.Run(backgroundCtx)

	authHandler := handlers.NewAuthHandler(authService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	matchHandler := handlers.NewMatchHandler(tournamentService, scheduleService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	statsHandler := handlers.NewStatsHandler(statsService)
	cardHandler := handlers.NewCardHandler(cardService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		rosterHandler,
		matchHandler,
		settingsHandler,
		statsHandler,
		cardHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopBackground()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
