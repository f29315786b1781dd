package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"contacthub/api/internal/cache"
	"contacthub/api/internal/config"
	"contacthub/api/internal/database"
	"contacthub/api/internal/handlers"
	"contacthub/api/internal/jobs"
	"contacthub/api/internal/log"
	"contacthub/api/internal/mail"
	"contacthub/api/internal/server"
	"contacthub/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	if err := os.MkdirAll(cfg.Storage.TempDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create temp dir")
	}

	avatarStore, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init avatar store")
	}
	if objectStore, ok := avatarStore.(*storage.ObjectStore); ok {
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
	}

	sender := mail.NewResendSender(cfg.Mail)
	dispatcher := mail.NewDispatcher(redisClient, cfg.Mail.Stream, sender, cfg.Mail.LinkBaseURL, logger)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()

	hostname, _ := os.Hostname()
	consumer := mail.NewConsumer(redisClient, cfg.Mail.Stream, hostname, cfg.Mail.ClaimInterval, sender, cfg.Mail.LinkBaseURL, logger)
	go func() {
		if err := consumer.Start(consumerCtx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("mail consumer stopped")
		}
	}()

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, avatarStore, dispatcher, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	sweeper := jobs.NewSweeper(cfg.Storage.TempDir, cfg.Jobs.TempSweepSpec, cfg.Jobs.TempMaxAge, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error().Err(err).Msg("temp sweeper start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, sweeper, stopConsumer, dbPool, redisClient)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	sweeper *jobs.Sweeper,
	stopConsumer context.CancelFunc,
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	sweeper.Stop()
	stopConsumer()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
