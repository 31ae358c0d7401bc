package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("COUNT_CACHE_TTL_SECONDS", "not-a-number")
	t.Setenv("REDIS_URL", "")

	cfg := Load()
	require.Equal(t, BackendMemory, cfg.StorageBackend)
	require.Equal(t, 30*time.Second, cfg.CountCacheTTL)
	require.Empty(t, cfg.RedisURL)
	require.Equal(t, "3000", cfg.APIPort)
}

func TestValidateFallsBackToPostgres(t *testing.T) {
	cfg := &Config{StorageBackend: "firestore", JWTSecret: "s"}
	cfg.Validate(zap.NewNop())
	require.Equal(t, BackendPostgres, cfg.StorageBackend)
}
