package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ultimatepos/activitylog/internal/config"
	"github.com/ultimatepos/activitylog/internal/db"
	"github.com/ultimatepos/activitylog/internal/events"
	"github.com/ultimatepos/activitylog/internal/models"
	"github.com/ultimatepos/activitylog/internal/repositories"
	"github.com/ultimatepos/activitylog/internal/services"
	"go.uber.org/zap"
)

// logtail follows the activity log: it subscribes with the given filters and
// prints every record that enters the live view as one JSON line on stdout.

func main() {
	category := flag.String("category", "", "log category filter")
	action := flag.String("action", "", "action filter")
	status := flag.String("status", "", "status filter")
	actor := flag.String("actor", "", "actor id filter")
	search := flag.String("search", "", "case-insensitive search term")
	limit := flag.Int("limit", 20, "size of the live view")
	flag.Parse()

	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)
	if cfg.StorageBackend == config.BackendMemory {
		log.Fatal("logtail needs a shared storage backend, not memory")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeBackend, err := db.OpenActivityLogBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open activity log storage", zap.Error(err))
	}
	defer closeBackend()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil || rdb == nil {
		log.Fatal("logtail needs redis for live updates", zap.Error(err))
	}
	defer rdb.Close()

	svc := services.NewActivityLogService(backend, nil, nil, cfg.EventsChannel, log)
	if err := svc.Start(ctx, events.NewRedisSubscriber(rdb, log)); err != nil {
		log.Fatal("failed to subscribe to activity log events", zap.Error(err))
	}

	filters := services.Filters{
		ActivityLogFilter: repositories.ActivityLogFilter{
			ActorID:     *actor,
			LogCategory: *category,
			Action:      *action,
			Status:      *status,
		},
		SearchTerm: *search,
	}

	out := json.NewEncoder(os.Stdout)
	seen := make(map[string]bool)

	unsubscribe, err := svc.Subscribe(filters, repositories.DefaultSort, *limit,
		func(records []models.ActivityLog) {
			// Oldest first so the output reads chronologically.
			for i := len(records) - 1; i >= 0; i-- {
				if seen[records[i].ID] {
					continue
				}
				seen[records[i].ID] = true
				if err := out.Encode(records[i]); err != nil {
					log.Warn("failed to write record", zap.Error(err))
				}
			}
		},
		func(err error) {
			log.Error("live view refresh failed", zap.Error(err))
		},
	)
	if err != nil {
		log.Fatal("invalid filters", zap.Error(err))
	}
	defer unsubscribe()

	log.Info("logtail started", zap.String("stream", cfg.EventsChannel))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down logtail")
}
