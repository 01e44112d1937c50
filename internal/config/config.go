// Package config builds the process-wide configuration from the environment.
// It is constructed once in main and passed into components; nothing here is
// mutated after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StoreConfig holds the OpenSearch connection settings.
type StoreConfig struct {
	URL     string
	Index   string
	Timeout time.Duration
}

// OllamaConfig holds the language-model client settings.
type OllamaConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// RetryConfig bounds the retriever's retry behaviour.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Config is the root configuration. RedisAddr, DatabaseURL and HTTPAddr are
// optional: an empty value disables the corresponding feature.
type Config struct {
	Store       StoreConfig
	Ollama      OllamaConfig
	Retry       RetryConfig
	PageSize    int
	RedisAddr   string
	CacheTTL    time.Duration
	DatabaseURL string
	HTTPAddr    string
	LogLevel    string
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Store: StoreConfig{
			URL:     getEnv("OPENSEARCH_URL", "http://localhost:9200"),
			Index:   getEnv("OPENSEARCH_INDEX", "customs_declarations"),
			Timeout: getDuration("STORE_TIMEOUT", 30*time.Second),
		},
		Ollama: OllamaConfig{
			URL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:   getEnv("OLLAMA_MODEL", "llama3"),
			Timeout: getDuration("OLLAMA_TIMEOUT", 120*time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts: getInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
			MaxDelay:    getDuration("RETRY_MAX_DELAY", 4*time.Second),
		},
		PageSize:    getInt("PAGE_SIZE", 10),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		CacheTTL:    getDuration("CACHE_TTL", 10*time.Minute),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8087"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Store.URL == "" {
		return nil, fmt.Errorf("OPENSEARCH_URL must not be empty")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getDuration accepts Go duration syntax ("30s") or a bare number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
