package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assistantpro-backend/internal/api"
	"assistantpro-backend/internal/config"
	"assistantpro-backend/internal/handlers"
	"assistantpro-backend/internal/integrations/groq"
	"assistantpro-backend/internal/logging"
	"assistantpro-backend/internal/metrics"
	"assistantpro-backend/internal/services"
	"assistantpro-backend/internal/store"
	"assistantpro-backend/internal/store/postgres"
	"assistantpro-backend/internal/store/supabase"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Production: cfg.IsProduction(),
		FilePath:   cfg.LogFile,
	})
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	logger.Info("starting AssistantPro backend", zap.String("environment", cfg.Environment))
	for _, w := range cfg.Warnings {
		logger.Warn("configuration fallback", zap.String("detail", w))
	}

	// 3. Initialize Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// 4. Initialize Transcript Store
	var (
		transcripts store.TranscriptStore
		users       store.UserStore
	)
	switch cfg.StoreBackend {
	case config.StoreBackendSupabase:
		transcripts = supabase.NewRESTStore(cfg.SupabaseURL, cfg.SupabaseKey, supabase.DefaultTimeout, logger)
		logger.Info("supabase REST store initialized")
	default:
		dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
		dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			dbCancel()
			logger.Fatal("unable to create database connection pool", zap.Error(err))
		}
		defer dbpool.Close()

		if err := dbpool.Ping(dbCtx); err != nil {
			dbCancel()
			logger.Fatal("unable to ping database", zap.Error(err))
		}
		dbCancel()

		pgStore := postgres.NewPostgresStore(dbpool, logger)
		transcripts, users = pgStore, pgStore
		logger.Info("postgres store initialized")
	}

	// Store reachability is reported, not required, so the chat path can run degraded.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := transcripts.Ping(pingCtx); err != nil {
		logger.Warn("transcript store is not reachable at startup", zap.Error(err))
	}
	pingCancel()

	// 5. Initialize Completion Provider
	groqClient := groq.NewClient(groq.Options{
		APIKey:      cfg.GroqAPIKey,
		APIURL:      cfg.GroqAPIURL,
		Model:       cfg.GroqModel,
		Temperature: &cfg.GroqTemperature,
		MaxTokens:   cfg.GroqMaxTokens,
		Timeout:     cfg.CompletionTimeout,
	}, logger)
	if !groqClient.Configured() {
		logger.Warn("GROQ_API_KEY is not set, chat requests will fail until it is configured")
	}

	// 6. Initialize Services
	chatService := services.NewChatService(transcripts, groqClient, services.NewSessionTracker(), m, cfg, logger)
	uploadService := services.NewUploadService(cfg.MaxUploadBytes, logger)

	// 7. Initialize Handlers & Router
	routerDeps := api.RouterDependencies{
		ChatHandler:   handlers.NewChatHandlers(chatService, logger),
		UploadHandler: handlers.NewUploadHandler(uploadService, cfg.MaxUploadBytes, logger),
		Config:        cfg,
		Metrics:       m,
		Gatherer:      registry,
		Logger:        logger,
	}
	if users != nil {
		routerDeps.AuthHandler = handlers.NewAuthHandler(services.NewAuthService(users, cfg, logger), logger)
	}
	router := api.NewRouter(routerDeps)

	// 8. Configure and Start HTTP Server
	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Must outlive the completion timeout.
		WriteTimeout: cfg.CompletionTimeout + 35*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("store_backend", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("could not listen", zap.String("port", cfg.HTTPPort), zap.Error(err))
		}
	}()

	<-stopChan
	logger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("server shutdown complete")
}
