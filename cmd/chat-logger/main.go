package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"twitch-tmi/auth"
	"twitch-tmi/config"
	"twitch-tmi/logging"
	"twitch-tmi/service"
	"twitch-tmi/storage"
	"twitch-tmi/tokens"
	"twitch-tmi/twitch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var source service.TokenSource
	if cfg.Twitch.OAuthToken == "" {
		manager := tokens.NewManager(tokens.FileTokenStore{Path: cfg.Twitch.TokenFile}, auth.Validator{})
		token, err := manager.Get(ctx)
		if err != nil {
			logger.Fatal("load user token", zap.String("file", cfg.Twitch.TokenFile), zap.Error(err))
		}
		cfg.Twitch.Username = token.Login
		cfg.Twitch.OAuthToken = token.IRCPassword()
		source = manager
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	batcher := storage.NewBatcher(ctx, pool, storage.BatchConfig{
		MaxBatch:      cfg.Batch.MaxBatch,
		FlushEvery:    cfg.Batch.FlushEvery,
		ChanBuffer:    cfg.Batch.ChanBuffer,
		StatsLogEvery: cfg.Batch.StatsLogEvery,
		FlushTimeout:  cfg.Batch.FlushTimeout,
	}, logger)

	store := storage.NewStore(pool, storage.StoreConfig{
		Timeout:     cfg.Batch.FlushTimeout,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}, logger)

	handler := service.NewHandler(batcher, store, logger)
	client := twitch.NewClient(cfg.Twitch, handler, logger)
	srv := service.New(client, source, logger)

	logger.Info("starting", zap.String("user", cfg.Twitch.Username), zap.Strings("channels", cfg.Twitch.Channels))
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("service run failed", zap.Error(err))
	}

	cancel()
	<-batcher.Done()
	logger.Info("shutting down",
		zap.Uint64("inserted_total", batcher.Inserted()),
		zap.Uint64("dropped_total", batcher.Dropped()),
		zap.Uint64("parse_errors", client.ParseErrors()),
	)
}
