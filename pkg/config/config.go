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

	// Database (optional: empty URL disables Postgres-backed stores)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Outbound HTTP
	HTTP HTTPConfig

	// Market data providers and batch pacing
	MarketData MarketDataConfig

	// Notification channels
	Notification NotificationConfig

	// Watchlist storage
	Watchlist WatchlistConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Scoring
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
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

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// HTTPConfig holds outbound HTTP client settings
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgent  string
}

// MarketDataConfig holds price source configuration
type MarketDataConfig struct {
	YahooBaseURL    string
	NaverChartURL   string // fchart siseJson
	NaverFinanceURL string // sise_day HTML

	DefaultPeriod   string
	DefaultInterval string

	Workers           int     // 동시 분석 종목 수
	RequestsPerSecond float64 // 데이터 요청 속도 제한
	Burst             int
	CacheTTL          time.Duration
}

// NotificationConfig holds delivery channel configuration
type NotificationConfig struct {
	TelegramBotToken string
	TelegramChatID   string
	TelegramBaseURL  string

	DiscordWebhookURL string

	Timeout time.Duration
}

// TelegramEnabled reports whether Telegram credentials are set
func (n NotificationConfig) TelegramEnabled() bool {
	return n.TelegramBotToken != "" && n.TelegramChatID != ""
}

// DiscordEnabled reports whether a Discord webhook is set
func (n NotificationConfig) DiscordEnabled() bool {
	return n.DiscordWebhookURL != ""
}

// WatchlistConfig holds watchlist storage configuration
type WatchlistConfig struct {
	Backend  string // file, postgres
	Path     string
	Defaults []string
}

// SchedulerConfig holds cron configuration
type SchedulerConfig struct {
	ReportSpec string // cron with seconds
	Timezone   string
	MaxRetries int
	RetryDelay time.Duration
}

// ScoringConfig holds scorer configuration
type ScoringConfig struct {
	WeightsPath string // optional YAML override
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		HTTP: HTTPConfig{
			Timeout:    getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("HTTP_RETRY_DELAY", "1s"),
			UserAgent:  getEnv("HTTP_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
		},

		MarketData: MarketDataConfig{
			YahooBaseURL:      getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			NaverChartURL:     getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			NaverFinanceURL:   getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			DefaultPeriod:     getEnv("MARKET_PERIOD", "1y"),
			DefaultInterval:   getEnv("MARKET_INTERVAL", "1d"),
			Workers:           getEnvAsInt("ANALYSIS_WORKERS", 4),
			RequestsPerSecond: getEnvAsFloat("MARKET_REQUESTS_PER_SECOND", 2),
			Burst:             getEnvAsInt("MARKET_BURST", 1),
			CacheTTL:          getEnvAsDuration("MARKET_CACHE_TTL", "15m"),
		},

		Notification: NotificationConfig{
			TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID:    getEnv("TELEGRAM_CHAT_ID", ""),
			TelegramBaseURL:   getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
			DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			Timeout:           getEnvAsDuration("NOTIFY_TIMEOUT", "10s"),
		},

		Watchlist: WatchlistConfig{
			Backend:  getEnv("WATCHLIST_BACKEND", "file"),
			Path:     getEnv("WATCHLIST_PATH", "watchlist.yaml"),
			Defaults: getEnvAsSlice("WATCHLIST_DEFAULTS", []string{"AAPL", "MSFT", "NVDA", "005930"}),
		},

		Scheduler: SchedulerConfig{
			ReportSpec: getEnv("REPORT_SCHEDULE", "0 30 16 * * MON-FRI"),
			Timezone:   getEnv("SCHEDULER_TZ", "Asia/Seoul"),
			MaxRetries: getEnvAsInt("JOB_MAX_RETRIES", 2),
			RetryDelay: getEnvAsDuration("JOB_RETRY_DELAY", "1m"),
		},

		Scoring: ScoringConfig{
			WeightsPath: getEnv("SCORING_WEIGHTS_PATH", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
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

	switch c.Watchlist.Backend {
	case "file":
		if c.Watchlist.Path == "" {
			return fmt.Errorf("WATCHLIST_PATH is required for file backend")
		}
	case "postgres":
		if !c.Database.Enabled() {
			return fmt.Errorf("DATABASE_URL is required for postgres watchlist backend")
		}
	default:
		return fmt.Errorf("WATCHLIST_BACKEND must be one of: file, postgres")
	}

	if c.MarketData.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be >= 1")
	}
	if c.MarketData.RequestsPerSecond <= 0 {
		return fmt.Errorf("MARKET_REQUESTS_PER_SECOND must be > 0")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TZ invalid: %w", err)
	}

	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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

// getEnvAsSlice splits a comma-separated value, dropping empty items
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
