package config

import (
	"testing"
	"time"

	"github.com/raine/vinscripted/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGateway_Defaults(t *testing.T) {
	for _, k := range []string{"VINSCRIPTED_ADDR", "VINSCRIPTED_PROVIDER", "VINSCRIPTED_RATE_LIMIT", "VINSCRIPTED_RATE_DRIVER", "VINSCRIPTED_CACHE_DB"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadGateway()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, 60*time.Second, cfg.RateWindow)
	assert.Equal(t, 10000, cfg.RateCapacity)
	assert.Empty(t, cfg.CacheDB)

	rl := cfg.RateLimitConfig()
	assert.Equal(t, ratelimit.DriverMemory, rl.Driver)
	assert.Nil(t, rl.Redis)
}

func TestLoadGateway_FromEnv(t *testing.T) {
	t.Setenv("VINSCRIPTED_ADDR", ":9090")
	t.Setenv("VINSCRIPTED_API_KEY", "k")
	t.Setenv("VINSCRIPTED_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("VINSCRIPTED_RATE_DRIVER", "redis")
	t.Setenv("VINSCRIPTED_RATE_WINDOW", "30s")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadGateway()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "k", cfg.APIKey)

	p := cfg.ProviderConfig()
	assert.Equal(t, "openai", p.Provider)
	assert.Equal(t, "sk-test", p.OpenAIAPIKey)
	assert.Equal(t, "http://localhost:11434/v1", p.OpenAIBaseURL)

	rl := cfg.RateLimitConfig()
	assert.Equal(t, 30*time.Second, rl.Window)
	require.NotNil(t, rl.Redis)
	assert.Equal(t, "redis:6379", rl.Redis.Addr)
}

func TestLoadGateway_InvalidValue(t *testing.T) {
	t.Setenv("VINSCRIPTED_RATE_LIMIT", "many")

	_, err := LoadGateway()
	assert.Error(t, err)
}

func TestLoadClient(t *testing.T) {
	t.Setenv("VINSCRIPTED_DB_PATH", "")
	t.Setenv("VINSCRIPTED_EXTENSION_KEY", "ext")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "vinscripted.db", cfg.DBPath)
	assert.Equal(t, "ext", cfg.ExtensionKey)
}
