package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaultsMemory(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 7, cfg.PopularWindowDays)
	assert.Equal(t, 10, cfg.PopularLimit)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "reservation.events", cfg.Events.Queue)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, map[string]bool{"GET": true}, cfg.Cache.MethodSet())
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestFromEnvMySQLRequiresCredentials(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")

	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "roomescape")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "3306", cfg.DBPort)
}

func TestFromEnvRejectsUnknownDriverAndZone(t *testing.T) {
	t.Setenv("STORE_DRIVER", "oracle")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestRateLimitNormalize(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "3s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.Equal(t, 1, cfg.RateLimit.RefillTokens)
	assert.Equal(t, 3*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 15*time.Second, cfg.RateLimit.TTL)
}

func TestRedisAddress(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380", Addr: "x:1"}.Address())
	assert.Equal(t, "x:1", RedisConfig{Host: "cache", Addr: "x:1"}.Address())
}
