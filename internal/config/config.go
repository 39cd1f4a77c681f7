// Package config loads kufarwatch settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
)

// ErrNoEndpoints is returned when the endpoint list resolves to nothing.
var ErrNoEndpoints = errors.New("no search endpoints configured")

// Config holds all application configuration. It is built once by Load and
// not modified afterwards.
type Config struct {
	Endpoints      []string
	RequestTimeout time.Duration
	Search         kufar.SearchParams
	USDToBYN       float64

	DaysBack      int
	RecentDays    int
	StatsDays     int
	StatsWeekDays int
	ItemsPerPage  int

	DefaultCurrency string
	DefaultLanguage string

	Brands Catalog
	Rates  Rates

	ConfigDir   string
	PostgresDSN string
	LogLevel    string
	LogFormat   string
}

// Load reads the .env file (if any) and returns a populated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	endpoints := getEnvList("KUFAR_ALT_API_URLS", kufar.DefaultEndpoints[1:])
	endpoints = append([]string{getEnv("KUFAR_API_URL", kufar.DefaultEndpoints[0])}, endpoints...)

	cfg := &Config{
		Endpoints:      endpoints,
		RequestTimeout: getEnvDuration("KUFAR_REQUEST_TIMEOUT", 10*time.Second),
		Search: kufar.SearchParams{
			PageSize: getEnvInt("KUFAR_PAGE_SIZE", 100),
			Lang:     getEnv("KUFAR_LANG", "ru"),
			Sort:     getEnv("KUFAR_SORT", "lst.d"),
			Category: getEnv("KUFAR_CATEGORY", ""),
			Region:   getEnv("KUFAR_REGION", ""),
			Currency: getEnv("KUFAR_CURRENCY", ""),
		},
		USDToBYN: getEnvFloat("USD_TO_BYN", kufar.DefaultUSDToBYN),

		DaysBack:      getEnvInt("DAYS_BACK", 10),
		RecentDays:    getEnvInt("RECENT_DAYS", 1),
		StatsDays:     getEnvInt("STATS_DAYS", 30),
		StatsWeekDays: getEnvInt("STATS_WEEK_DAYS", 7),
		ItemsPerPage:  getEnvInt("ITEMS_PER_PAGE", 10),

		DefaultCurrency: strings.ToUpper(getEnv("DISPLAY_CURRENCY", BaseCurrency)),
		DefaultLanguage: getEnv("DISPLAY_LANGUAGE", "ru"),

		ConfigDir:   getEnv("KUFARWATCH_CONFIG_DIR", defaultConfigDir()),
		PostgresDSN: getEnv("PG_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.loadTables(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadTables() error {
	c.Brands = DefaultCatalog()
	if path := getEnv("KUFARWATCH_BRANDS_FILE", ""); path != "" {
		brands, err := LoadCatalog(path)
		if err != nil {
			return err
		}
		c.Brands = brands
	}

	c.Rates = DefaultRates()
	if raw := getEnv("CURRENCY_RATES", ""); raw != "" {
		rates, err := ParseRates(raw)
		if err != nil {
			return fmt.Errorf("CURRENCY_RATES: %w", err)
		}
		c.Rates = rates
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.Endpoints) == 0 || c.Endpoints[0] == "" {
		return ErrNoEndpoints
	}
	if !c.Rates.Supports(c.DefaultCurrency) {
		return fmt.Errorf("DISPLAY_CURRENCY: %w: %s", ErrUnknownCurrency, c.DefaultCurrency)
	}
	for name, days := range map[string]int{
		"DAYS_BACK":       c.DaysBack,
		"RECENT_DAYS":     c.RecentDays,
		"STATS_DAYS":      c.StatsDays,
		"STATS_WEEK_DAYS": c.StatsWeekDays,
		"ITEMS_PER_PAGE":  c.ItemsPerPage,
	} {
		if days <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, days)
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "kufarwatch")
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
