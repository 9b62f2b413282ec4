package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostel/internal/config"
	"hostel/internal/notify"
	"hostel/internal/queue"
	"hostel/internal/store"
	"hostel/internal/store/backend"
)

// Worker consumes domain events from the Redis queue and sends the
// matching notices.
func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).With("component", "worker")
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.QueueBackend != "redis" {
		logger.Error("worker needs QUEUE_BACKEND=redis; with the memory queue the API dispatches notices itself")
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Fixture data would not match the queued ids, so the worker never falls
	// back to it.
	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	opened, err := backend.Open(openCtx, backend.Options{
		Backend:       cfg.StoreBackend,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		DatabaseURL:   cfg.DatabaseURL,
		Location:      loc,
	}, logger)
	cancel()
	if err != nil {
		logger.Error("store connect failed", "err", err)
		os.Exit(1)
	}
	defer opened.Store.Close()

	redisConn := store.NewRedis(cfg.RedisAddr)
	if redisConn == nil {
		logger.Error("REDIS_ADDR is required by the worker")
		os.Exit(1)
	}
	defer redisConn.Close()
	if !redisConn.Healthy(ctx) {
		logger.Warn("redis not reachable yet, consumer will keep retrying", "addr", cfg.RedisAddr)
	}

	email := notify.EmailNotifier(cfg.SendGridKey, cfg.MailFromName, cfg.MailFrom, logger)
	dispatcher := notify.NewDispatcher(opened.Store, email, notify.LogNotifier{Logger: logger}, logger)

	logger.Info("worker started, waiting for messages", "store", opened.Store.Name())
	if err := dispatcher.Run(ctx, queue.NewRedisQueue(redisConn.Client, "")); err != nil {
		logger.Error("consumer failed", "err", err)
	}
	logger.Info("worker stopped")
}
