package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("KEYBIND_STORE", "redis")
	t.Setenv("KEYBIND_REDIS_ADDR", "cache:6380")
	t.Setenv("KEYBIND_REDIS_DB", "4")
	t.Setenv("KEYBIND_STORE_TIMEOUT", "1500ms")
	t.Setenv("KEYBIND_STORE_BREAKER", "false")

	cfg := &Config{SecretKey: "untouched", StoreBreaker: true}
	parseEnv(cfg)

	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, 4, cfg.RedisDB)
	assert.Equal(t, 1500*time.Millisecond, cfg.StoreTimeout)
	assert.False(t, cfg.StoreBreaker)
	assert.Equal(t, "untouched", cfg.SecretKey)
}

func TestParseEnv_MalformedPanics(t *testing.T) {
	t.Setenv("KEYBIND_STORE_TIMEOUT", "forever")
	require.Panics(t, func() { parseEnv(&Config{}) })
}
