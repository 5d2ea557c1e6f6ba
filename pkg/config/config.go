package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Selection run defaults (CLI flags override these)
	Selection SelectionConfig

	// Database (optional result store)
	Database DatabaseConfig

	// Redis (optional metadata L2 cache)
	Redis RedisConfig

	// External APIs
	Tushare TushareConfig

	// Metadata cache
	MetadataCacheTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string // persistent audit sink, empty = stdout only
}

// SelectionConfig holds defaults for a selection run
type SelectionConfig struct {
	DataDir      string
	ConfigPath   string
	Tickers      string // "all" or comma separated codes
	ExportDir    string
	ExportFormat string // xlsx, csv
	Schedule     string // cron expression (with seconds)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string // redis://..., overrides Host/Port/Password/DB
	Prefix   string // key namespace
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// TushareConfig holds tushare pro API configuration
type TushareConfig struct {
	Token      string
	BaseURL    string
	RatePerMin int
	Timeout    time.Duration
	ListStatus string // L: listed, D: delisted, P: paused
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration after loading the given .env file.
// An empty envFile falls back to the default lookup paths.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		loadEnvFile()
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Selection: SelectionConfig{
			DataDir:      getEnv("DATA_DIR", "./data"),
			ConfigPath:   getEnv("SELECTOR_CONFIG", "./configs.json"),
			Tickers:      getEnv("SELECT_TICKERS", "all"),
			ExportDir:    getEnv("EXPORT_DIR", "./excel_results"),
			ExportFormat: strings.ToLower(getEnv("EXPORT_FORMAT", "xlsx")),
			Schedule:     getEnv("SELECT_SCHEDULE", "0 30 16 * * 1-5"),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Prefix:   getEnv("REDIS_PREFIX", "stockpick"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Tushare: TushareConfig{
			Token:      getEnv("TUSHARE_TOKEN", ""),
			BaseURL:    getEnv("TUSHARE_BASE_URL", "http://api.tushare.pro"),
			RatePerMin: getEnvAsInt("TUSHARE_RATE_PER_MIN", 200),
			Timeout:    getEnvAsDuration("TUSHARE_TIMEOUT", "30s"),
			ListStatus: getEnv("TUSHARE_LIST_STATUS", "L"),
		},

		MetadataCacheTTL: getEnvAsDuration("METADATA_CACHE_TTL", "24h"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", "select_results.log"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Selection.ExportFormat != "xlsx" && c.Selection.ExportFormat != "csv" {
		return fmt.Errorf("EXPORT_FORMAT must be one of: xlsx, csv")
	}

	if c.Tushare.RatePerMin <= 0 {
		return fmt.Errorf("TUSHARE_RATE_PER_MIN must be positive")
	}

	return nil
}

// HasDatabase reports whether a result store is configured
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
