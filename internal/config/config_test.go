package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates the test from the machine's real environment and any
// .env file: Load treats empty as unset, and godotenv never overrides a
// variable that is already set.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENSEARCH_URL", "OPENSEARCH_INDEX", "STORE_TIMEOUT",
		"OLLAMA_URL", "OLLAMA_MODEL", "OLLAMA_TIMEOUT",
		"RETRY_MAX_ATTEMPTS", "RETRY_BASE_DELAY", "RETRY_MAX_DELAY",
		"PAGE_SIZE", "REDIS_ADDR", "CACHE_TTL", "DATABASE_URL",
		"HTTP_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9200", cfg.Store.URL)
	assert.Equal(t, "customs_declarations", cfg.Store.Index)
	assert.Equal(t, 30*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.URL)
	assert.Equal(t, 120*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 4*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Empty(t, cfg.RedisAddr, "caching is off by default")
	assert.Empty(t, cfg.DatabaseURL, "history is off by default")
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENSEARCH_URL", "http://search:9200")
	t.Setenv("OPENSEARCH_INDEX", "declarations_test")
	t.Setenv("PAGE_SIZE", "20")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_BASE_DELAY", "250ms")
	t.Setenv("OLLAMA_TIMEOUT", "60")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://search:9200", cfg.Store.URL)
	assert.Equal(t, "declarations_test", cfg.Store.Index)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, time.Minute, cfg.Ollama.Timeout, "bare numbers are seconds")
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("page size", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PAGE_SIZE", "-1")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("retry attempts", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RETRY_MAX_ATTEMPTS", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
