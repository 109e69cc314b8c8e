// cmd/historian is a background service that pops score events from the Redis
// queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/truco/internal/cache"
	"github.com/jason-s-yu/truco/internal/config"
	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, cfg.PostgresURL(), logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()
	if err := database.Migrate(pool); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer rdb.Close()

	queue := cfg.Redis.EventsQueue
	if queue == "" {
		queue = cache.DefaultQueueName
	}
	svc := historian.New(rdb, queue, database.NewStore(pool),
		cfg.Historian.BatchSize, cfg.Historian.FlushDelay, logger)
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("historian stopped")
	}
	logger.Info("Historian shutdown complete.")
}
