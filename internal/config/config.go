package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config keeps runtime settings for the service.
type Config struct {
	HTTPAddr       string
	DatabaseDriver string
	DatabaseURL    string
	DatabaseDebug  bool
	AllowedOrigins []string
	TelegramToken  string
	TelegramChatID int64
	DigestTime     string

	// ShutdownTimeout bounds the whole shutdown sequence once it is triggered.
	ShutdownTimeout time.Duration
}

// DigestEnabled reports whether the daily Telegram digest should be scheduled.
func (c Config) DigestEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Load reads an optional .env file and then the environment, with sane defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		HTTPAddr:       env("HTTP_ADDR"),
		DatabaseDriver: strings.ToLower(env("DB_DRIVER")),
		DatabaseURL:    env("DATABASE_URL"),
		DatabaseDebug:  strings.EqualFold(env("DB_DEBUG"), "true"),
		AllowedOrigins: splitList(env("CORS_ALLOWED_ORIGINS")),
		TelegramToken:  env("TELEGRAM_TOKEN"),
		DigestTime:     env("DIGEST_TIME"),
	}

	if cfg.HTTPAddr == "" {
		port := env("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		cfg.HTTPAddr = ":" + port
	}

	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = DriverSQLite
	}
	if cfg.DatabaseDriver != DriverSQLite && cfg.DatabaseDriver != DriverPostgres {
		return cfg, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == DriverPostgres {
			return cfg, fmt.Errorf("DATABASE_URL is required for postgres")
		}
		cfg.DatabaseURL = "tarefas.db"
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if cfg.DigestTime == "" {
		cfg.DigestTime = "08:00"
	}

	cfg.ShutdownTimeout = 30 * time.Second
	if raw := env("SHUTDOWN_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return cfg, fmt.Errorf("SHUTDOWN_TIMEOUT must be a positive duration, got %q", raw)
		}
		cfg.ShutdownTimeout = timeout
	}

	if raw := env("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.TelegramChatID = chatID
	}

	return cfg, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
