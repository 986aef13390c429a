package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the reminder service.
type Config struct {
	DatabaseURL string
	HTTPAddr    string
	CronSecret  string

	// LookbackWindow is the width of the due window evaluated on every check.
	LookbackWindow time.Duration
	// CheckInterval drives the in-process trigger. Zero disables it.
	CheckInterval time.Duration

	DispatchTimeout     time.Duration
	DispatchConcurrency int
	DispatchRatePerSec  int
	DefaultTimezone     string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	TelegramToken   string

	RedisURL             string
	SubscriptionCacheTTL time.Duration

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		DatabaseURL:     get("DATABASE_URL"),
		HTTPAddr:        get("HTTP_ADDR"),
		CronSecret:      get("CRON_SECRET"),
		DefaultTimezone: get("DEFAULT_TIMEZONE"),
		VAPIDPublicKey:  get("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: get("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    get("VAPID_SUBJECT"),
		TelegramToken:   get("TELEGRAM_TOKEN"),
		RedisURL:        get("REDIS_URL"),
		LogLevel:        get("LOG_LEVEL"),
	}

	var err error
	if cfg.LookbackWindow, err = parseDuration(get("LOOKBACK_WINDOW"), 15*time.Minute); err != nil {
		return cfg, fmt.Errorf("LOOKBACK_WINDOW: %w", err)
	}
	if cfg.CheckInterval, err = parseDuration(get("CHECK_INTERVAL"), time.Minute); err != nil {
		return cfg, fmt.Errorf("CHECK_INTERVAL: %w", err)
	}
	if cfg.DispatchTimeout, err = parseDuration(get("DISPATCH_TIMEOUT"), 10*time.Second); err != nil {
		return cfg, fmt.Errorf("DISPATCH_TIMEOUT: %w", err)
	}
	if cfg.SubscriptionCacheTTL, err = parseDuration(get("SUBSCRIPTION_CACHE_TTL"), 5*time.Minute); err != nil {
		return cfg, fmt.Errorf("SUBSCRIPTION_CACHE_TTL: %w", err)
	}
	if cfg.DispatchConcurrency, err = parseInt(get("DISPATCH_CONCURRENCY"), 4); err != nil {
		return cfg, fmt.Errorf("DISPATCH_CONCURRENCY: %w", err)
	}
	if cfg.DispatchRatePerSec, err = parseInt(get("DISPATCH_RATE_PER_SEC"), 20); err != nil {
		return cfg, fmt.Errorf("DISPATCH_RATE_PER_SEC: %w", err)
	}
	if raw := get("LOG_PRETTY"); raw != "" {
		if cfg.LogPretty, err = strconv.ParseBool(raw); err != nil {
			return cfg, fmt.Errorf("LOG_PRETTY: %w", err)
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "focus.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "America/Mexico_City"
	}
	if cfg.VAPIDSubject == "" {
		cfg.VAPIDSubject = "mailto:admin@example.com"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.LookbackWindow <= 0 {
		return fmt.Errorf("LOOKBACK_WINDOW must be positive")
	}
	if c.CheckInterval < 0 {
		return fmt.Errorf("CHECK_INTERVAL must not be negative")
	}
	// A window narrower than the trigger period leaves gaps between checks.
	if c.CheckInterval > 0 && c.LookbackWindow < c.CheckInterval {
		return fmt.Errorf("LOOKBACK_WINDOW (%s) must be >= CHECK_INTERVAL (%s)", c.LookbackWindow, c.CheckInterval)
	}
	if c.DispatchConcurrency <= 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be positive")
	}
	if c.DispatchRatePerSec <= 0 {
		return fmt.Errorf("DISPATCH_RATE_PER_SEC must be positive")
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT must be positive")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("DEFAULT_TIMEZONE: %w", err)
	}
	return nil
}

// WebPushEnabled reports whether VAPID keys are configured.
func (c Config) WebPushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

func parseInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
