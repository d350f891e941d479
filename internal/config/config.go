package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/language"
)

type Config struct {
	// HTTP Server
	Port           string
	TrustedProxies []string

	// Backend selection
	DataBackend   string
	DataDirectory string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets payments mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Ledger
	Timezone           string
	Locale             string
	UpcomingWindowDays int
	TopContributors    int
	RotationSeed       uint64

	// Worker
	AlertScanInterval time.Duration

	// Dashboard cache
	DashboardCacheTTL  time.Duration
	DashboardCacheSize int

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		DataBackend:   getEnv("DATA_BACKEND", "memory"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/kameti.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kameti"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Payments"),

		Timezone:           getEnv("TIMEZONE", "Asia/Karachi"),
		Locale:             getEnv("LOCALE", "en"),
		UpcomingWindowDays: getEnvInt("UPCOMING_WINDOW_DAYS", 7),
		TopContributors:    getEnvInt("TOP_CONTRIBUTORS", 5),
		RotationSeed:       getEnvUint("ROTATION_SEED", 0),

		AlertScanInterval: getEnvDuration("ALERT_SCAN_INTERVAL", time.Hour),

		DashboardCacheTTL:  getEnvDuration("DASHBOARD_CACHE_TTL", time.Minute),
		DashboardCacheSize: getEnvInt("DASHBOARD_CACHE_SIZE", 64),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate reports every invalid setting at once. It creates the SQLite
// database directory when missing.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		bad("invalid port '%s': must be a number", c.Port)
	} else if port < 1 || port > 65535 {
		bad("invalid port %d: must be between 1 and 65535", port)
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			bad("invalid trusted proxy '%s': must be a CIDR", cidr)
		}
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if err := c.checkSQLitePath(); err != nil {
			errs = append(errs, err)
		}
	default:
		bad("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend)
	}

	if c.AMQPURL != "" {
		if err := checkAMQPURL(c.AMQPURL); err != nil {
			errs = append(errs, err)
		}
		if c.AMQPExchange == "" {
			bad("AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			bad("AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		bad("Google Sheet name is required when a spreadsheet id is set")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		bad("invalid timezone '%s': %v", c.Timezone, err)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		bad("invalid locale '%s': %v", c.Locale, err)
	}

	if c.UpcomingWindowDays < 0 || c.UpcomingWindowDays > 366 {
		bad("invalid upcoming window %d: must be between 0 and 366 days", c.UpcomingWindowDays)
	}
	if c.TopContributors < 0 {
		bad("invalid top contributors %d: must not be negative", c.TopContributors)
	}

	switch {
	case c.AlertScanInterval < time.Second:
		bad("invalid alert scan interval %v: must be at least 1 second", c.AlertScanInterval)
	case c.AlertScanInterval > 24*time.Hour:
		bad("invalid alert scan interval %v: must be at most 24 hours", c.AlertScanInterval)
	}

	if c.DashboardCacheTTL < 0 {
		bad("invalid dashboard cache TTL %v: must not be negative", c.DashboardCacheTTL)
	}
	if c.DashboardCacheSize < 1 {
		bad("invalid dashboard cache size %d: must be at least 1", c.DashboardCacheSize)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) checkSQLitePath() error {
	if c.SQLiteDBPath == "" {
		return errors.New("SQLite database path cannot be empty when using sqlite backend")
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create SQLite database directory '%s': %v", dir, err)
	}
	return nil
}

func checkAMQPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid AMQP URL '%s': %v", raw, err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return fmt.Errorf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Level returns the slog level for LOG_LEVEL, defaulting to Info.
func (c *Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
	return lvl, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
