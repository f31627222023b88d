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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nudge-notify/internal/config"
	"nudge-notify/internal/push"
	"nudge-notify/internal/repository"
	"nudge-notify/internal/server"
	"nudge-notify/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("NUDGE_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := repository.NewDB(cfg.Database.DSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	itemRepo := repository.NewItemRepository(db)
	spaceRepo := repository.NewSpaceRepository(db)
	userRepo := repository.NewUserRepository(db)

	sender, err := push.NewFCMSender(ctx, cfg.FCM.CredentialsFile)
	if err != nil {
		logger.Fatal("init fcm", zap.Error(err))
	}

	deliverer := service.NewDeliverer(sender, userRepo, logger)
	itemSvc := service.NewItemService(itemRepo, logger)
	pingSvc := service.NewPingService(userRepo, deliverer, logger)
	dispatcher := service.NewDispatcherService(
		itemRepo, spaceRepo, userRepo, deliverer, cfg.ScanLookahead(), logger)

	scheduler := service.NewSchedulerService(time.UTC)
	if _, err := scheduler.ScheduleInterval(cfg.ScanInterval(), func() {
		scanCtx, cancel := context.WithTimeout(context.Background(), cfg.ScanInterval())
		defer cancel()
		if _, err := dispatcher.Run(scanCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduled scan", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("schedule scan", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(itemSvc, pingSvc, dispatcher, userRepo,
		cfg.Auth.JWTSecret, cfg.Scan.Secret, logger)

	logger.Info("nudge-notify started", zap.String("addr", cfg.HTTP.Addr))
	if err := srv.Run(ctx, cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
