package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Env != "dev" {
		t.Fatalf("unexpected env: %q", cfg.Env)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected api base url: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 8*time.Second {
		t.Fatalf("unexpected api timeout: %v", cfg.API.Timeout)
	}
	if cfg.Bot.PollTimeoutSeconds != 30 {
		t.Fatalf("unexpected poll timeout: %d", cfg.Bot.PollTimeoutSeconds)
	}
	if cfg.Admin.TOTPIssuer != "CivicLens" {
		t.Fatalf("unexpected totp issuer: %q", cfg.Admin.TOTPIssuer)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
env: prod
log:
  level: warn
bot:
  token: tg-token
  poll_timeout_seconds: 15
api:
  base_url: https://api.civiclens.example
  timeout: 12s
redis:
  addr: redis:6379
  db: 3
admin:
  require_totp: true
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Env != "prod" || cfg.Log.Level != "warn" {
		t.Fatalf("yaml not applied: env=%q level=%q", cfg.Env, cfg.Log.Level)
	}
	if cfg.Bot.Token != "tg-token" || cfg.Bot.PollTimeoutSeconds != 15 {
		t.Fatalf("bot section not applied: %+v", cfg.Bot)
	}
	if cfg.API.BaseURL != "https://api.civiclens.example" || cfg.API.Timeout != 12*time.Second {
		t.Fatalf("api section not applied: %+v", cfg.API)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 3 {
		t.Fatalf("redis section not applied: %+v", cfg.Redis)
	}
	if !cfg.Admin.RequireTOTP {
		t.Fatal("admin section not applied")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
api:
  base_url: https://from-yaml.example
redis:
  addr: yaml:6379
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("API_BASE_URL", "https://from-env.example")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("ADMIN_REQUIRE_TOTP", "true")
	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.BaseURL != "https://from-env.example" {
		t.Fatalf("env did not win: %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("timeout override missed: %v", cfg.API.Timeout)
	}
	if cfg.Redis.Addr != "yaml:6379" || cfg.Redis.DB != 5 {
		t.Fatalf("redis mix wrong: %+v", cfg.Redis)
	}
	if !cfg.Admin.RequireTOTP || cfg.Bot.Token != "env-token" {
		t.Fatalf("overrides missed: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("bad int override", func(t *testing.T) {
		t.Setenv("REDIS_DB", "many")
		if _, err := Load(""); err == nil {
			t.Fatal("expected an error for a non-numeric REDIS_DB")
		}
	})

	t.Run("blank base url", func(t *testing.T) {
		t.Setenv("API_BASE_URL", "   ")
		if _, err := Load(""); err == nil {
			t.Fatal("expected an error for a blank base url")
		}
	})

	t.Run("zero poll timeout", func(t *testing.T) {
		t.Setenv("POLL_TIMEOUT_SECONDS", "0")
		if _, err := Load(""); err == nil {
			t.Fatal("expected an error for a zero poll timeout")
		}
	})
}
