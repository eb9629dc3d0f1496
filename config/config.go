package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/raine/vinscripted/internal/llm"
	"github.com/raine/vinscripted/internal/ratelimit"
)

const (
	AppName     = "vinscripted"
	EnvFileName = "config.env"
)

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
// Variables already set in the environment take precedence.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Gateway configures the analysis API server.
type Gateway struct {
	Addr     string `env:"VINSCRIPTED_ADDR" envDefault:":8080"`
	APIKey   string `env:"VINSCRIPTED_API_KEY"`
	LogLevel string `env:"VINSCRIPTED_LOG_LEVEL" envDefault:"info"`

	Provider      string `env:"VINSCRIPTED_PROVIDER" envDefault:"gemini"`
	Model         string `env:"VINSCRIPTED_MODEL"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	RateLimit    int           `env:"VINSCRIPTED_RATE_LIMIT" envDefault:"10"`
	RateWindow   time.Duration `env:"VINSCRIPTED_RATE_WINDOW" envDefault:"60s"`
	RateCapacity int           `env:"VINSCRIPTED_RATE_CAPACITY" envDefault:"10000"`
	RateDriver   string        `env:"VINSCRIPTED_RATE_DRIVER" envDefault:"memory"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// CacheDB enables the analysis cache when set.
	CacheDB     string        `env:"VINSCRIPTED_CACHE_DB"`
	CacheMaxAge time.Duration `env:"VINSCRIPTED_CACHE_MAX_AGE" envDefault:"168h"`
}

// ProviderConfig returns the model provider settings.
func (g Gateway) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:      g.Provider,
		Model:         g.Model,
		GeminiAPIKey:  g.GeminiAPIKey,
		OpenAIAPIKey:  g.OpenAIAPIKey,
		OpenAIBaseURL: g.OpenAIBaseURL,
	}
}

// RateLimitConfig returns the limiter settings.
func (g Gateway) RateLimitConfig() ratelimit.Config {
	cfg := ratelimit.Config{
		Driver:   g.RateDriver,
		Limit:    g.RateLimit,
		Window:   g.RateWindow,
		Capacity: g.RateCapacity,
	}
	if g.RateDriver == ratelimit.DriverRedis {
		cfg.Redis = &ratelimit.RedisConfig{
			Addr:     g.RedisAddr,
			Password: g.RedisPassword,
			DB:       g.RedisDB,
		}
	}
	return cfg
}

// Client configures the command-line client.
type Client struct {
	DBPath       string `env:"VINSCRIPTED_DB_PATH" envDefault:"vinscripted.db"`
	ExtensionKey string `env:"VINSCRIPTED_EXTENSION_KEY"`
	LogLevel     string `env:"VINSCRIPTED_LOG_LEVEL" envDefault:"info"`
}

// LoadGateway reads the gateway configuration from the environment.
func LoadGateway() (Gateway, error) {
	var cfg Gateway
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse gateway config: %w", err)
	}
	return cfg, nil
}

// LoadClient reads the client configuration from the environment.
func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse client config: %w", err)
	}
	return cfg, nil
}
