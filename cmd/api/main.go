package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ultimatepos/activitylog/internal/cache"
	"github.com/ultimatepos/activitylog/internal/config"
	"github.com/ultimatepos/activitylog/internal/db"
	"github.com/ultimatepos/activitylog/internal/events"
	apphttp "github.com/ultimatepos/activitylog/internal/http"
	"github.com/ultimatepos/activitylog/internal/http/handlers"
	"github.com/ultimatepos/activitylog/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	backend, closeBackend, err := db.OpenActivityLogBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open activity log storage", zap.Error(err), zap.String("backend", cfg.StorageBackend))
	}
	defer closeBackend()

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}

	// Events
	var (
		publisher  events.Publisher
		subscriber events.Subscriber
		counts     services.CountCache
	)
	if rdb != nil {
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
		subscriber = events.NewRedisSubscriber(rdb, log)
		counts = cache.NewRedisCountCache(rdb, cfg.CountCacheTTL, log)
	} else {
		bus := events.NewLocalBus(log)
		publisher, subscriber = bus, bus
	}

	// Services
	activityLogService := services.NewActivityLogService(backend, publisher, counts, cfg.EventsChannel, log)
	if err := activityLogService.Start(ctx, subscriber); err != nil {
		log.Fatal("failed to subscribe to activity log events", zap.Error(err))
	}

	// Handlers
	activityLogHandler := handlers.NewActivityLogHandler(activityLogService, log)
	wsHub := handlers.NewWSHub(activityLogService, log)
	defer wsHub.Close()

	app := apphttp.NewApp()
	apphttp.SetupRouter(app, cfg, log, rdb, activityLogHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		wsHub.Close()
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr), zap.String("backend", cfg.StorageBackend))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
