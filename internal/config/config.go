package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort          string        `env:"HTTP_PORT" envDefault:"8080"`
	StoreDriver       string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"profiler.db"`
	LLMProvider       string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMAPIKey         string        `env:"LLM_API_KEY"`
	LLMBaseURL        string        `env:"LLM_BASE_URL"`
	LLMModel          string        `env:"LLM_MODEL"`
	LLMTemperature    float64       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMConnectTimeout time.Duration `env:"LLM_CONNECT_TIMEOUT" envDefault:"10s"`
	LLMReadTimeout    time.Duration `env:"LLM_READ_TIMEOUT" envDefault:"180s"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	RateLimit         int           `env:"RATE_LIMIT" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	JWTSecret         string        `env:"JWT_SECRET"`
	ReportMinTurns    int           `env:"REPORT_MIN_TURNS" envDefault:"8"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadCLIConfig es LoadConfig con el store fijado a sqlite: el cliente de consola
// no necesita Postgres.
func LoadCLIConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.StoreDriver = StoreDriverSQLite
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %s", c.StoreDriver)
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for store driver %s", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", c.StoreDriver)
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.LLMBaseURL == "" {
			c.LLMBaseURL = "https://api.openai.com/v1"
		}
		if c.LLMModel == "" {
			c.LLMModel = "gpt-4o"
		}
	case ProviderOllama:
		if c.LLMBaseURL == "" {
			c.LLMBaseURL = "http://localhost:11434/api/generate"
		}
		if c.LLMModel == "" {
			c.LLMModel = "llama3"
		}
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLMProvider)
	}

	if c.RateLimit <= 0 {
		c.RateLimit = 60
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = time.Minute
	}
	if c.ReportMinTurns <= 0 {
		c.ReportMinTurns = 8
	}
	return nil
}
