package db

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/ultimatepos/activitylog/internal/config"
	"github.com/ultimatepos/activitylog/internal/repositories"
	"github.com/ultimatepos/activitylog/migrations"
	"go.uber.org/zap"
)

// OpenActivityLogBackend connects the storage backend selected by
// cfg.StorageBackend. The returned close function releases it.
func OpenActivityLogBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (repositories.ActivityLogBackend, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return repositories.NewMemoryActivityLogRepo(), func() {}, nil

	case config.BackendMongo:
		client, err := NewMongoClient(ctx, cfg.MongoURI, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }

		repo := repositories.NewMongoActivityLogRepo(GetCollection(client, cfg.MongoDatabase, cfg.MongoCollection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return repo, closeFn, nil

	default:
		pool, err := NewPostgresPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}

		var migrationsFS fs.FS = migrations.FS
		if cfg.MigrationsDir != "" {
			migrationsFS = os.DirFS(cfg.MigrationsDir)
		}
		if err := RunMigrations(ctx, pool, migrationsFS, log); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return repositories.NewPostgresActivityLogRepo(pool), pool.Close, nil
	}
}
