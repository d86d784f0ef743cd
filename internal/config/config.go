package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every runtime setting the server needs. It is built once in
// main and passed down by reference; nothing below the wiring layer reads the
// environment.
type Config struct {
	Env         string       `toml:"env"`
	Port        int          `toml:"port"`
	DatabaseURL string       `toml:"database_url"`
	Redis       RedisConfig  `toml:"redis"`
	JWT         JWTConfig    `toml:"jwt"`
	Stripe      StripeConfig `toml:"stripe"`
	SMTP        SMTPConfig   `toml:"smtp"`
	MinIO       MinIOConfig  `toml:"minio"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type JWTConfig struct {
	Secret        string        `toml:"secret"`
	TTL           time.Duration `toml:"ttl"`
	CookieTTLDays int           `toml:"cookie_ttl_days"`
}

type StripeConfig struct {
	SecretKey     string `toml:"secret_key"`
	WebhookSecret string `toml:"webhook_secret"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	From     string `toml:"from"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

// IsProduction reports whether secure-only cookies and generic error bodies
// should be used.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load builds the configuration from an optional TOML file overridden by
// environment variables. path may be empty.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required (set DATABASE_URL)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required (set JWT_SECRET)")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Env:  "development",
		Port: 8080,
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		JWT: JWTConfig{
			TTL:           24 * time.Hour,
			CookieTTLDays: 90,
		},
		SMTP: SMTPConfig{
			Host: "localhost",
			Port: 25,
			From: "Tourbase <hello@tourbase.io>",
		},
		MinIO: MinIOConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "tourbase-images",
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Env, "APP_ENV")
	setInt(&cfg.Port, "PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setDuration(&cfg.JWT.TTL, "JWT_TTL")
	setInt(&cfg.JWT.CookieTTLDays, "JWT_COOKIE_TTL_DAYS")
	setString(&cfg.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setInt(&cfg.SMTP.Port, "SMTP_PORT")
	setString(&cfg.SMTP.From, "SMTP_FROM")
	setString(&cfg.SMTP.Username, "SMTP_USERNAME")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.MinIO.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.MinIO.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.MinIO.Bucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v == "true" {
		cfg.MinIO.UseSSL = true
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
