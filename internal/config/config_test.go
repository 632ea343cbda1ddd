package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.db")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.LLMProvider != ProviderOpenAI || cfg.LLMBaseURL != "https://api.openai.com/v1" || cfg.LLMModel != "gpt-4o" {
		t.Fatalf("unexpected llm defaults: %+v", cfg)
	}
	if cfg.LLMConnectTimeout != 10*time.Second || cfg.LLMReadTimeout != 180*time.Second {
		t.Fatalf("unexpected timeouts: connect=%v read=%v", cfg.LLMConnectTimeout, cfg.LLMReadTimeout)
	}
	if cfg.RateLimit != 60 || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %d/%v", cfg.RateLimit, cfg.RateLimitWindow)
	}
	if cfg.ReportMinTurns != 8 {
		t.Fatalf("expected report min turns 8, got %d", cfg.ReportMinTurns)
	}
}

func TestLoadConfigOllamaDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("LLM_PROVIDER", "Ollama")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.StoreDriver != StoreDriverSQLite {
		t.Fatalf("expected normalized driver, got %s", cfg.StoreDriver)
	}
	if cfg.LLMBaseURL != "http://localhost:11434/api/generate" || cfg.LLMModel != "llama3" {
		t.Fatalf("unexpected ollama defaults: %s %s", cfg.LLMBaseURL, cfg.LLMModel)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "")
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error when DATABASE_URL is missing")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		t.Setenv("LLM_PROVIDER", "anthropic")
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error for unknown provider")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		t.Setenv("LLM_READ_TIMEOUT", "forever")
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error for unparsable duration")
		}
	})
}

func TestLoadCLIConfigForcesSQLite(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", "cli.db")

	cfg, err := LoadCLIConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.StoreDriver != StoreDriverSQLite || cfg.SQLitePath != "cli.db" {
		t.Fatalf("unexpected store config: %s %s", cfg.StoreDriver, cfg.SQLitePath)
	}
}
