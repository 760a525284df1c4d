package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	SinkLog      = "log"
	SinkTelegram = "telegram"
	SinkAsynq    = "asynq"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	App       App
	Postgres  Postgres
	Redis     Redis
	Bot       Bot
	Ingest    Ingest
	Notify    Notify
	Sweeper   Sweeper
	Reconcile Reconcile
	Reference Reference
	Store     Store
	HTTP      HTTP
	Metrics   Metrics
	Probe     Probe
}

type App struct {
	Name     string `env:"APP_NAME" envDefault:"pw-hub-relics"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Level переводит LOG_LEVEL в уровень slog. Неизвестное значение даёт info.
func (a App) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type Store struct {
	Driver string `env:"STORE_DRIVER" envDefault:"postgres"`
}

// Load читает .env (если есть) и переменные окружения.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	config.Notify.Sink = strings.ToLower(config.Notify.Sink)
	config.Store.Driver = strings.ToLower(config.Store.Driver)

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate проверяет согласованность групп между собой.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("PG_DSN is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Notify.Sink {
	case SinkLog, SinkAsynq:
	case SinkTelegram:
		if c.Bot.Token == "" {
			errs = append(errs, errors.New("BOT_TOKEN is required for the telegram sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_SINK %q", c.Notify.Sink))
	}

	if c.Ingest.BatchSize <= 0 {
		errs = append(errs, errors.New("INGEST_BATCH_SIZE must be positive"))
	}

	if c.Reconcile.MaxAttempts <= 0 {
		errs = append(errs, errors.New("RECONCILE_MAX_ATTEMPTS must be positive"))
	}

	return errors.Join(errs...)
}
