package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"palavraviva/internal/ratelimit"
	"palavraviva/internal/util"
	"palavraviva/pkg/ai"
	"palavraviva/pkg/queue"
	"palavraviva/pkg/storage"
	"palavraviva/services/api/internal/app"
	"palavraviva/services/api/internal/config"
	"palavraviva/services/api/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel)

	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		logger.Error("parse session TTL", "error", err)
		os.Exit(1)
	}

	appCfg := app.Config{
		DatabaseURL:         cfg.DatabaseURL,
		RedisAddr:           cfg.RedisAddr,
		RedisPassword:       cfg.RedisPassword,
		SessionTTL:          sessionTTL,
		JWTSecret:           cfg.JWTSecret,
		StripeAPIKey:        cfg.StripeAPIKey,
		StripePriceID:       cfg.StripePriceID,
		CheckoutSuccessURL:  cfg.CheckoutSuccessURL,
		CheckoutCancelURL:   cfg.CheckoutCancelURL,
		PortalReturnURL:     cfg.PortalReturnURL,
		FreeReflectionLimit: cfg.FreeReflectionLimit,
		Logger:              logger,
	}

	if cfg.AIModel != "" {
		appCfg.Generator = ai.NewOpenAIGenerator(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
	}
	if cfg.AMQPURL != "" {
		jobs, err := queue.NewAMQPJobQueue(cfg.AMQPURL, cfg.GenerationQueue, logger)
		if err != nil {
			logger.Error("connect job queue", "error", err)
			os.Exit(1)
		}
		defer jobs.Close()
		appCfg.Jobs = jobs
		appCfg.Tracker = queue.NewTracker(cfg.RedisAddr, cfg.RedisPassword, 0)
	}
	if cfg.MinioEndpoint != "" {
		photos, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			logger.Error("connect object storage", "error", err)
			os.Exit(1)
		}
		appCfg.Photos = photos
	}

	appCore, err := app.New(appCfg)
	if err != nil {
		logger.Error("init application", "error", err)
		os.Exit(1)
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("parse trusted proxies", "error", err)
		os.Exit(1)
	}

	srv := server.New(server.Config{
		App:             appCore,
		TrustedProxies:  trustedProxies,
		SignupLimiter:   newLimiter(cfg, "signup", cfg.SignupRateLimitPerMinute, logger),
		LoginLimiter:    newLimiter(cfg, "login", cfg.LoginRateLimitPerMinute, logger),
		CheckoutLimiter: newLimiter(cfg, "checkout", cfg.CheckoutRateLimitPerMinute, logger),
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

func newLimiter(cfg config.FileConfig, name string, perMinute int, logger *slog.Logger) *ratelimit.FixedWindowLimiter {
	if perMinute <= 0 {
		return nil
	}
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(
		cfg.RedisAddr, cfg.RedisPassword,
		"palavraviva:ratelimit:"+name,
		perMinute, time.Minute,
	)
	if err != nil {
		logger.Error("init rate limiter", "name", name, "error", err)
		os.Exit(1)
	}
	return limiter
}
