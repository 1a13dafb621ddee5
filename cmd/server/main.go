package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shelftalk/shelftalk/internal/api"
	"github.com/shelftalk/shelftalk/internal/books"
	"github.com/shelftalk/shelftalk/internal/chat"
	"github.com/shelftalk/shelftalk/internal/config"
	"github.com/shelftalk/shelftalk/internal/generate"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize book catalog: Postgres if configured, SQLite otherwise
	var catalog books.Catalog
	if cfg.DatabaseURL != "" {
		pg, err := books.NewPostgresCatalog(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		catalog = pg
		logger.Info().Msg("book catalog backed by PostgreSQL")
	} else {
		sq, err := books.NewSQLiteCatalog(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		catalog = sq
		logger.Info().Str("path", cfg.SQLitePath).Msg("book catalog backed by SQLite")
	}
	defer catalog.Close()

	// Initialize Redis (rate limiting); optional
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	// Select the response generator
	var responder generate.Responder
	if cfg.DemoMode() {
		responder = generate.NewDemoResponder(logger)
		logger.Info().Msg("running in demo mode (canned responses)")
	} else {
		responder = generate.NewLiveResponder(cfg.GeneratorURL, cfg.GeneratorTimeout, catalog, logger)
		logger.Info().Str("url", cfg.GeneratorURL).Msg("running in live mode")
	}

	// Chat pipeline
	store := chat.NewStore()
	dispatcher := chat.NewDispatcher(store, responder, cfg.GeneratorTimeout, logger)

	// Create router
	router := api.NewRouter(api.Options{
		Logger:             logger,
		Store:              store,
		Dispatcher:         dispatcher,
		Catalog:            catalog,
		Redis:              redisClient,
		DemoMode:           cfg.DemoMode(),
		PollInterval:       cfg.StreamPollInterval,
		RateLimitWhitelist: cfg.RateLimitWhitelist,
		AutoBlockEnabled:   cfg.AutoBlockEnabled,
	})

	// Create server. No WriteTimeout: SSE streams stay open indefinitely.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting ShelfTalk server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// Let in-flight turns land in the log before exit
	dispatcher.Wait()

	logger.Info().Msg("server stopped")
}
