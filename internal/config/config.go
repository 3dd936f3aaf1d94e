// Package config loads the deposit orchestrator's environment
// configuration: a struct tagged "env", populated from os.Getenv by
// reflection, with an optional local .env file loaded first.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-sourced setting the daemon and CLI need:
// metadata store credentials, worker pool sizing, the registry document
// location, and the message bus and idempotency store connection strings.
type Config struct {
	MetadataStoreBaseURL string `env:"METADATA_STORE_BASE_URL"`
	MetadataStoreUser     string `env:"METADATA_STORE_USER"`
	MetadataStorePassword string `env:"METADATA_STORE_PASSWORD"`

	IndexURL       string `env:"INDEX_URL"`
	IndexPageLimit int    `env:"INDEX_PAGE_LIMIT"`

	WorkerConcurrency int `env:"WORKER_CONCURRENCY"`
	WorkerQueueFactor int `env:"WORKER_QUEUE_FACTOR"`

	HTTPUserAgent string `env:"HTTP_USER_AGENT"`

	SettleIntervalMS int `env:"SETTLE_INTERVAL_MS"`

	StatementURLRewritePrefix      string `env:"STATEMENT_URL_REWRITE_PREFIX"`
	StatementURLRewriteReplacement string `env:"STATEMENT_URL_REWRITE_REPLACEMENT"`

	RepositoryConfigDocument string `env:"REPOSITORY_CONFIG_DOCUMENT"`

	RabbitMQURL       string `env:"RABBITMQ_URL"`
	RabbitMQQueue     string `env:"RABBITMQ_TRIGGER_QUEUE"`
	RedisURL          string `env:"REDIS_URL"`
	DepositUpdaterInterval     time.Duration
	DepositUpdaterIntervalRaw  string `env:"DEPOSIT_UPDATER_INTERVAL"`
	SubmissionUpdaterInterval    time.Duration
	SubmissionUpdaterIntervalRaw string `env:"SUBMISSION_UPDATER_INTERVAL"`

	LogDebug bool `env:"LOG_DEBUG"`
	EnvName  string `env:"ENV_NAME"`
}

// Load reads a local .env file if present (its absence is not an error),
// then populates a Config from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		// Absence of a .env file is normal outside local dev; only report
		// genuine read errors, which the caller treats as fatal.
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := &Config{
		IndexPageLimit:    100,
		WorkerConcurrency: 8,
		WorkerQueueFactor: 2,
		HTTPUserAgent:     "deposit-orchestrator/1.0",
		SettleIntervalMS:  10_000,
		RepositoryConfigDocument: "config/repositories.yaml",
		RabbitMQQueue:            "deposit.submissions",
		DepositUpdaterIntervalRaw:    "5m",
		SubmissionUpdaterIntervalRaw: "1m",
		EnvName:                      "local",
	}

	if err := setFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	depositInterval, err := time.ParseDuration(cfg.DepositUpdaterIntervalRaw)
	if err != nil {
		return nil, fmt.Errorf("config: DEPOSIT_UPDATER_INTERVAL: %w", err)
	}
	cfg.DepositUpdaterInterval = depositInterval

	submissionInterval, err := time.ParseDuration(cfg.SubmissionUpdaterIntervalRaw)
	if err != nil {
		return nil, fmt.Errorf("config: SUBMISSION_UPDATER_INTERVAL: %w", err)
	}
	cfg.SubmissionUpdaterInterval = submissionInterval

	return cfg, nil
}

// setFromEnvVars fills s's "env"-tagged fields from os.Getenv, leaving the
// struct's preset defaults untouched when a variable is unset.
func setFromEnvVars(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("setFromEnvVars: s must be a pointer")
	}

	e := v.Elem()
	t := e.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}

		raw, present := os.LookupEnv(tag)
		if !present || strings.TrimSpace(raw) == "" {
			continue
		}

		fv := e.Field(i)
		if !fv.CanSet() {
			continue
		}

		switch fv.Kind() {
		case reflect.Bool:
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
			fv.SetBool(parsed)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
			fv.SetInt(parsed)
		default:
			fv.SetString(raw)
		}
	}

	return nil
}
