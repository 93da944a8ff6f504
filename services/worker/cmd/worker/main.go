package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"palavraviva/internal/util"
	"palavraviva/pkg/ai"
	"palavraviva/pkg/generation"
	"palavraviva/pkg/queue"
	"palavraviva/pkg/store"
	"palavraviva/services/worker/internal/app"
	"palavraviva/services/worker/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("init postgres store", "error", err)
		os.Exit(1)
	}

	jobs, err := queue.NewAMQPJobQueue(cfg.AMQPURL, cfg.GenerationQueue, logger)
	if err != nil {
		logger.Error("connect job queue", "error", err)
		os.Exit(1)
	}
	defer jobs.Close()

	tracker := queue.NewTracker(cfg.RedisAddr, cfg.RedisPassword, 0)
	generator := generation.New(dataStore, ai.NewOpenAIGenerator(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel), logger)
	worker := app.New(generator, tracker, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker consuming", "queue", cfg.GenerationQueue)
	if err := jobs.Consume(ctx, worker.HandleJob); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consume", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
