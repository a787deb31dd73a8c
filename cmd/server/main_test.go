package main

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JeanGrijp/seo-report/internal/config"
	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

func redisStorageConfig(t *testing.T, mr *miniredis.Miniredis) config.StorageConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.StorageConfig{
		Type:  config.StorageRedis,
		Redis: config.RedisConfig{Host: mr.Host(), Port: port},
	}
}

func TestInitStorage_UnsupportedType(t *testing.T) {
	_, _, err := initStorage(config.StorageConfig{Type: "etcd"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestInitStorage_RedisCloseFailureIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	core, logs := observer.New(zapcore.WarnLevel)

	_, closeStorage, err := initStorage(redisStorageConfig(t, mr), zap.New(core))
	require.NoError(t, err)

	closeStorage()
	assert.Zero(t, logs.Len())

	// A second close fails because the client is already closed.
	closeStorage()
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to close redis storage", logs.All()[0].Message)
}

func TestRun_SetupFailureReturnsErrorAndClosesStorage(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Config{
		Storage:     redisStorageConfig(t, mr),
		RateLimiter: config.RateLimiterConfig{IPRule: domain.RateLimitRule{Requests: 10, Window: time.Hour}},
		Tracking:    config.TrackingConfig{SQLitePath: filepath.Join(t.TempDir(), "missing", "usage.db")},
		Presenter:   config.PresenterConfig{Language: "en-US"},
	}

	err := run(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open usage database")

	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRun_InvalidStorageReturnsError(t *testing.T) {
	err := run(context.Background(), config.Config{Storage: config.StorageConfig{Type: "etcd"}}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init storage")
}
