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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"hostel/internal/access"
	"hostel/internal/accounts"
	"hostel/internal/attendance"
	"hostel/internal/auth"
	"hostel/internal/cache"
	"hostel/internal/cloudinary"
	"hostel/internal/complaints"
	"hostel/internal/config"
	"hostel/internal/handler"
	"hostel/internal/httpmiddleware"
	"hostel/internal/metrics"
	"hostel/internal/notify"
	"hostel/internal/occupancy"
	"hostel/internal/queue"
	"hostel/internal/rooms"
	"hostel/internal/store"
	"hostel/internal/store/backend"
	"hostel/internal/students"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	opened, err := backend.Open(openCtx, backend.Options{
		Backend:         cfg.StoreBackend,
		MongoURI:        cfg.MongoURI,
		MongoDatabase:   cfg.MongoDatabase,
		DatabaseURL:     cfg.DatabaseURL,
		FixtureFallback: cfg.FixtureFallback,
		Location:        loc,
	}, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	db := opened.Store
	defer db.Close()
	metrics.SetStore(db.Name(), opened.Mode)

	redisConn := store.NewRedis(cfg.RedisAddr)
	defer redisConn.Close()
	var rc *redis.Client
	if redisConn != nil {
		rc = redisConn.Client
	}

	var q queue.Queue
	if cfg.QueueBackend == "redis" && rc != nil {
		q = queue.NewRedisQueue(rc, "")
	} else {
		if cfg.QueueBackend == "redis" {
			logger.Warn("QUEUE_BACKEND=redis without REDIS_ADDR, using in-memory queue")
		}
		q = queue.NewInMemory(64)
		// No separate worker can see an in-memory queue, so notices are
		// dispatched in-process.
		email := notify.EmailNotifier(cfg.SendGridKey, cfg.MailFromName, cfg.MailFrom, logger)
		dispatcher := notify.NewDispatcher(db, email, notify.LogNotifier{Logger: logger}, logger)
		go func() {
			if err := dispatcher.Run(ctx, q); err != nil {
				logger.Error("notification consumer stopped", "err", err)
			}
		}()
	}

	var limiter httpmiddleware.Limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if cfg.RateLimitBackend == "redis" && rc != nil {
		limiter = httpmiddleware.NewRedisWindow(rc, cfg.RateLimitPerMin)
	}

	tokens := auth.NewTokens(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	var authn access.Authenticator = auth.TokenAuthenticator{Tokens: tokens}
	if cfg.AuthMode == "bypass" {
		logger.Warn("AUTH_MODE=bypass: every request runs as the demo admin")
		authn = access.Static{Caller: access.DemoAdmin}
	}

	cdn := cloudinary.New(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret, cfg.CloudinaryFolder)
	if cdn.Configured() {
		logger.Info("cloudinary configured", "cloud", cfg.CloudinaryCloud)
	} else {
		logger.Info("cloudinary not configured, uploads disabled")
	}

	tracker := occupancy.New(db, logger)
	studentSvc := students.NewService(db, tracker, logger)
	h := handler.New(handler.Deps{
		Accounts: accounts.NewService(db, studentSvc, tokens, logger),
		Students: studentSvc,
		Rooms:    rooms.NewService(db, tracker, logger),
		Attendance: attendance.NewRecorder(db, loc, logger,
			attendance.WithStatsCache(cache.New(rc, "hostel:"), cfg.StatsCacheTTL),
			attendance.WithEvents(q),
		),
		Complaints: complaints.NewService(db, q, logger),
		Uploads:    cdn,
		Store:      db,
		Mode:       opened.Mode,
		Redis:      redisConn,
		Logger:     logger,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/health", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(metrics.Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Routes(r.Group("/api", httpmiddleware.RateLimit(limiter, logger)), authn)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "store", db.Name(), "mode", opened.Mode, "auth", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", "err", err)
	}
	logger.Info("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
