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

	"github.com/joho/godotenv"
	"github.com/shinyyama/bargain-backend/internal/config"
	"github.com/shinyyama/bargain-backend/internal/db"
	"github.com/shinyyama/bargain-backend/internal/events"
	"github.com/shinyyama/bargain-backend/internal/logger"
	appmw "github.com/shinyyama/bargain-backend/internal/middleware"
	"github.com/shinyyama/bargain-backend/internal/server"
	"go.uber.org/zap"
)

var (
	gitSHA    = "dev"
	buildTime = ""
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RedisAddr != "" {
		rp, err := events.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EventsChannel)
		if err != nil {
			zl.Warn("redis unavailable, events disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer rp.Close()
			publisher = rp
			zl.Info("publishing events", zap.String("channel", cfg.EventsChannel))
		}
	}

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID, cfg.AuthDevHeader)
	if err != nil {
		zl.Fatal("failed to init firebase auth", zap.Error(err))
	}
	if cfg.AuthDevHeader {
		zl.Warn("development auth header enabled", zap.String("header", appmw.DevUserHeader))
	}

	srv := server.New(nil, server.Options{
		Config:    cfg,
		Log:       zl,
		Publisher: publisher,
		Auth:      authMw,
		SHA:       gitSHA,
		BuildTime: buildTime,
	})

	conn, err := db.Connect(cfg)
	if err != nil {
		zl.Fatal("db connect error", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	if err := db.Migrate(conn); err != nil {
		zl.Fatal("auto migrate error", zap.Error(err))
	}
	srv.SetDB(conn)

	go srv.Sweeper().Run(ctx)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting server", zap.String("addr", addr), zap.String("git_sha", gitSHA))
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zl.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zl.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
