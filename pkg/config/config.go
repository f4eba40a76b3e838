package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Timezone used to derive the trading day partition key
	Timezone string

	// Database
	Database DatabaseConfig

	// External APIs
	Eastmoney EastmoneyConfig
	AI        AIConfig

	// Pipeline
	Refresh RefreshConfig
	Chart   ChartConfig

	// Files
	ExportPath        string
	AnnouncementsFile string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// DatabaseConfig holds the local SQLite store configuration
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
}

// EastmoneyConfig holds market-data provider configuration
type EastmoneyConfig struct {
	ChangesURL string // intraday alert feed (push2ex)
	QuoteURL   string // per-symbol snapshot (push2)
	HistoryURL string // minute bars (push2his)
	RateLimit  int    // requests per second across all provider calls
	Timeout    time.Duration
}

// AIConfig holds the chat completion service configuration
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// RefreshConfig holds refresh orchestration settings
type RefreshConfig struct {
	Workers       int    // upper bound of concurrent enrichment fetches
	Schedule      string // cron expression (with seconds)
	RetentionDays int    // partitions older than this are dropped; 0 keeps everything
}

// ChartConfig holds chart view settings
type ChartConfig struct {
	Workers int
	ViewTTL time.Duration // unwatched views older than this are closed
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port:     getEnv("PORT", "8089"),
		Env:      getEnv("ENV", "development"),
		Timezone: getEnv("TIMEZONE", "Asia/Shanghai"),

		Database: DatabaseConfig{
			Path:         getEnv("DB_PATH", "stock_data.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 8),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 4),
			BusyTimeout:  getEnvAsDuration("DB_BUSY_TIMEOUT", "5s"),
		},

		Eastmoney: EastmoneyConfig{
			ChangesURL: getEnv("EASTMONEY_CHANGES_URL", "https://push2ex.eastmoney.com"),
			QuoteURL:   getEnv("EASTMONEY_QUOTE_URL", "https://push2.eastmoney.com"),
			HistoryURL: getEnv("EASTMONEY_HISTORY_URL", "https://push2his.eastmoney.com"),
			RateLimit:  getEnvAsInt("PROVIDER_RATE_LIMIT", 20),
			Timeout:    getEnvAsDuration("PROVIDER_TIMEOUT", "15s"),
		},

		AI: AIConfig{
			APIKey:  getEnv("AI_API_KEY", ""),
			BaseURL: getEnv("AI_BASE_URL", "https://api.deepseek.com"),
			Model:   getEnv("AI_MODEL", "deepseek-chat"),
		},

		Refresh: RefreshConfig{
			Workers:       getEnvAsInt("REFRESH_WORKERS", 10),
			Schedule:      getEnv("REFRESH_SCHEDULE", "0 */5 9-15 * * 1-5"),
			RetentionDays: getEnvAsInt("PARTITION_RETENTION_DAYS", 30),
		},

		Chart: ChartConfig{
			Workers: getEnvAsInt("CHART_WORKERS", 5),
			ViewTTL: getEnvAsDuration("CHART_VIEW_TTL", "30m"),
		},

		ExportPath:        getEnv("EXPORT_PATH", "stock_data.xlsx"),
		AnnouncementsFile: getEnv("ANNOUNCEMENTS_FILE", "announcements.yaml"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Location returns the configured timezone, falling back to UTC+8
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Refresh.Workers < 1 {
		return fmt.Errorf("REFRESH_WORKERS must be positive")
	}

	if c.Chart.Workers < 1 {
		return fmt.Errorf("CHART_WORKERS must be positive")
	}

	if c.Refresh.RetentionDays < 0 {
		return fmt.Errorf("PARTITION_RETENTION_DAYS must not be negative")
	}

	if c.Eastmoney.RateLimit < 1 {
		return fmt.Errorf("PROVIDER_RATE_LIMIT must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
