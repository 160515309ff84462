// Command sweeper expires overdue bargains once and exits. It is meant for
// schedulers that run jobs instead of keeping the API's in-process loop.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/bargain-backend/internal/config"
	"github.com/shinyyama/bargain-backend/internal/db"
	"github.com/shinyyama/bargain-backend/internal/events"
	"github.com/shinyyama/bargain-backend/internal/logger"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shinyyama/bargain-backend/internal/service"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	conn, err := db.Connect(cfg)
	if err != nil {
		zl.Fatal("db connect error", zap.Error(err))
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RedisAddr != "" {
		rp, err := events.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EventsChannel)
		if err != nil {
			zl.Warn("redis unavailable, events disabled", zap.Error(err))
		} else {
			defer rp.Close()
			publisher = rp
		}
	}

	bargainRepo := repository.NewBargainRepository(conn)
	notifySvc := service.NewNotificationService(repository.NewNotificationRepository(conn), publisher, zl)
	bargainSvc := service.NewBargainService(
		repository.NewTxRunner(conn),
		bargainRepo,
		repository.NewProductRepository(conn),
		repository.NewBargainSettingsRepository(conn),
		notifySvc,
		zl,
		service.BargainOptions{TTL: cfg.BargainTTL},
	)
	sweeper := service.NewExpirySweeper(bargainRepo, bargainSvc, zl, cfg.SweepInterval, cfg.SweepBatchSize)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	total := 0
	for {
		n, err := sweeper.SweepOnce(ctx)
		total += n
		if err != nil {
			zl.Fatal("sweep failed", zap.Int("expired", total), zap.Error(err))
		}
		if n < cfg.SweepBatchSize {
			break
		}
	}
	zl.Info("sweep finished", zap.Int("expired", total))
}
