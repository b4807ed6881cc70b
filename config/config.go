/*
config.go - Service configuration

PURPOSE:
  Collects every runtime setting in one struct. Values come from, in
  increasing precedence:
    1. built-in defaults
    2. a .env file in the working directory (optional)
    3. process environment
    4. command-line flags (-port, -db)

ENVIRONMENT:
  PORT                HTTP port (8080)
  DB_PATH             SQLite path, ":memory:" for an in-memory database (filings.db)
  LOG_LEVEL           debug | info | warn | error (info)
  STAGE               dev | prod (dev)
  SCHEDULER_ENABLED   run payroll pre-generation (true)
  SCHEDULER_INTERVAL  Go duration between runs (1h)
  RESEND_API_KEY      enables confirmation emails when set
  NOTIFY_FROM         sender address
  NOTIFY_TO           comma-separated recipients

SEE ALSO:
  - cmd/server/main.go: consumer
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the resolved service configuration.
type Config struct {
	Port     int
	DBPath   string
	LogLevel string
	Stage    string

	SchedulerEnabled  bool
	SchedulerInterval time.Duration

	ResendAPIKey string
	NotifyFrom   string
	NotifyTo     []string

	// DotEnvErr is the error from loading .env, if any. It is not fatal.
	DotEnvErr error
}

// NotificationsEnabled reports whether confirmation emails can be sent.
func (c Config) NotificationsEnabled() bool {
	return c.ResendAPIKey != "" && c.NotifyFrom != "" && len(c.NotifyTo) > 0
}

// Load reads .env, the environment and the given command-line arguments.
func Load(args []string) (Config, error) {
	dotEnvErr := godotenv.Load()
	cfg, err := fromEnv(os.Getenv)
	if err != nil {
		return Config{}, err
	}
	cfg.DotEnvErr = dotEnvErr

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	port := fs.Int("port", cfg.Port, "HTTP server port")
	dbPath := fs.String("db", cfg.DBPath, "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Port = *port
	cfg.DBPath = *dbPath

	return cfg, cfg.Validate()
}

func fromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:              8080,
		DBPath:            "filings.db",
		LogLevel:          "info",
		Stage:             "dev",
		SchedulerEnabled:  true,
		SchedulerInterval: time.Hour,
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("STAGE"); v != "" {
		cfg.Stage = v
	}
	if v := getenv("SCHEDULER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCHEDULER_ENABLED %q: %w", v, err)
		}
		cfg.SchedulerEnabled = enabled
	}
	if v := getenv("SCHEDULER_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCHEDULER_INTERVAL %q: %w", v, err)
		}
		cfg.SchedulerInterval = interval
	}

	cfg.ResendAPIKey = getenv("RESEND_API_KEY")
	cfg.NotifyFrom = getenv("NOTIFY_FROM")
	for _, to := range strings.Split(getenv("NOTIFY_TO"), ",") {
		if to = strings.TrimSpace(to); to != "" {
			cfg.NotifyTo = append(cfg.NotifyTo, to)
		}
	}
	return cfg, nil
}

// Validate checks ranges that parsing alone cannot.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.SchedulerEnabled && c.SchedulerInterval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", c.SchedulerInterval)
	}
	return nil
}
