package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"`
	Log      LogConfig      `yaml:"log"`
	Bot      BotConfig      `yaml:"bot"`
	API      APIConfig      `yaml:"api"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	S3       S3Config       `yaml:"s3"`
	Admin    AdminConfig    `yaml:"admin"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type BotConfig struct {
	Token              string `yaml:"token"`
	PollTimeoutSeconds int    `yaml:"poll_timeout_seconds"`
	WebhookAddr        string `yaml:"webhook_addr"`
	WebhookSecretPath  string `yaml:"webhook_secret_path"`
}

// APIConfig points at the remote CivicLens REST API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AdminConfig struct {
	RequireTOTP     bool   `yaml:"require_totp"`
	TOTPIssuer      string `yaml:"totp_issuer"`
	SecretCipherKey string `yaml:"secret_cipher_key"`
}

func Default() Config {
	return Config{
		Env: "dev",
		Log: LogConfig{Level: "info"},
		Bot: BotConfig{
			PollTimeoutSeconds: 30,
		},
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 8 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Admin: AdminConfig{
			RequireTOTP: false,
			TOTPIssuer:  "CivicLens",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api base_url is required")
	}
	if c.Bot.PollTimeoutSeconds <= 0 {
		return errors.New("bot poll_timeout_seconds must be positive")
	}
	return nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if err := overrideInt("POLL_TIMEOUT_SECONDS", &cfg.Bot.PollTimeoutSeconds); err != nil {
		return err
	}
	if v := os.Getenv("WEBHOOK_ADDR"); v != "" {
		cfg.Bot.WebhookAddr = v
	}
	if v := os.Getenv("WEBHOOK_SECRET_PATH"); v != "" {
		cfg.Bot.WebhookSecretPath = v
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if err := overrideDuration("API_TIMEOUT", &cfg.API.Timeout); err != nil {
		return err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}

	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if err := overrideBool("S3_USE_SSL", &cfg.S3.UseSSL); err != nil {
		return err
	}

	if err := overrideBool("ADMIN_REQUIRE_TOTP", &cfg.Admin.RequireTOTP); err != nil {
		return err
	}
	if v := os.Getenv("ADMIN_TOTP_ISSUER"); v != "" {
		cfg.Admin.TOTPIssuer = v
	}
	if v := os.Getenv("SECRET_CIPHER_KEY"); v != "" {
		cfg.Admin.SecretCipherKey = v
	}

	return nil
}

func overrideInt(key string, target *int) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = value
	return nil
}

func overrideBool(key string, target *bool) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = value
	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = value
	return nil
}
