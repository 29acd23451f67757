package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	AlphaVantage AlphaVantageConfig `envconfig:"ALPHA_VANTAGE"`
	News         NewsConfig         `envconfig:"NEWS"`
	Market       MarketConfig       `envconfig:"MARKET"`
	Analysis     AnalysisConfig     `envconfig:"ANALYSIS"`
	LLM          LLMConfig          `envconfig:"LLM"`
	Database     DatabaseConfig     `envconfig:"DATABASE"`
	ClickHouse   ClickHouseConfig   `envconfig:"CLICKHOUSE"`
	Redis        RedisConfig        `envconfig:"REDIS"`
	Telegram     TelegramConfig     `envconfig:"TELEGRAM"`
	API          APIConfig          `envconfig:"API"`
	Logging      LoggingConfig      `envconfig:"LOGGING"`
}

// AlphaVantageConfig represents upstream data provider settings
type AlphaVantageConfig struct {
	APIKey            string        `envconfig:"ALPHA_VANTAGE_API_KEY" required:"false"`
	BaseURL           string        `envconfig:"ALPHA_VANTAGE_BASE_URL" default:"https://www.alphavantage.co/query"`
	Timeout           time.Duration `envconfig:"ALPHA_VANTAGE_TIMEOUT" default:"15s"`
	RequestsPerMinute int           `envconfig:"ALPHA_VANTAGE_REQUESTS_PER_MINUTE" default:"5"`
}

// NewsConfig represents news pipeline configuration
type NewsConfig struct {
	Provider        string        `envconfig:"NEWS_PROVIDER" default:"alphavantage"` // alphavantage or rss
	AssetClass      string        `envconfig:"NEWS_ASSET_CLASS" default:"CRYPTO"`
	RefreshInterval time.Duration `envconfig:"NEWS_REFRESH_INTERVAL" default:"60m"`
	DefaultLimit    int           `envconfig:"NEWS_DEFAULT_LIMIT" default:"10"`
	FallbackDir     string        `envconfig:"NEWS_FALLBACK_DIR" default:"data/news"`
	RedisTTL        time.Duration `envconfig:"NEWS_REDIS_TTL" default:"24h"`
	RSSFeeds        []string      `envconfig:"NEWS_RSS_FEEDS" default:"https://www.coindesk.com/arc/outboundfeeds/rss/,https://cointelegraph.com/rss"`
}

// MarketConfig represents market data configuration
type MarketConfig struct {
	Currency       string        `envconfig:"MARKET_CURRENCY" default:"USD"`
	UpdateInterval time.Duration `envconfig:"MARKET_UPDATE_INTERVAL" default:"24h"`
	HistoryDays    int           `envconfig:"MARKET_HISTORY_DAYS" default:"365"`
}

// AnalysisConfig represents composer settings
type AnalysisConfig struct {
	NewsLimit      int      `envconfig:"ANALYSIS_NEWS_LIMIT" default:"10"`
	DefaultSymbols []string `envconfig:"ANALYSIS_DEFAULT_SYMBOLS" default:"BTC,ETH,BNB,XRP,ADA"`
}

// LLMConfig represents narrative generator configuration
type LLMConfig struct {
	Provider     string        `envconfig:"LLM_PROVIDER" default:"openai"` // openai (any compatible endpoint) or gemini
	APIKey       string        `envconfig:"LLM_API_KEY" required:"false"`
	BaseURL      string        `envconfig:"LLM_BASE_URL" default:"http://localhost:11434/v1"`
	Model        string        `envconfig:"LLM_MODEL" default:"llama3.2"`
	Temperature  float32       `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	MaxTokens    int           `envconfig:"LLM_MAX_TOKENS" default:"1000"`
	Timeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
	TemplatesDir string        `envconfig:"LLM_TEMPLATES_DIR" default:"./templates"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"crypto_assistant"`
	User           string `envconfig:"DB_USER" default:"postgres"`
	Password       string `envconfig:"DB_PASSWORD" default:"postgres"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// ClickHouseConfig represents ClickHouse candle storage
type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database string `envconfig:"CLICKHOUSE_DATABASE" default:"default"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD" required:"false"`
}

// RedisConfig represents Redis snapshot cache
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// TelegramConfig represents Telegram bot configuration
type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
}

// APIConfig represents HTTP API configuration
type APIConfig struct {
	Port    string `envconfig:"API_PORT" default:"8080"`
	GinMode string `envconfig:"API_GIN_MODE" default:"release"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:"logs/app.log"`
}

// Load reads .env (if present) and then environment variables
func Load() (*Config, error) {
	// .env is optional, real environment wins
	_ = godotenv.Load()

	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	switch c.News.Provider {
	case "alphavantage":
		if c.AlphaVantage.APIKey == "" {
			return fmt.Errorf("alpha vantage api key is required for the alphavantage news provider")
		}
	case "rss":
		if len(c.News.RSSFeeds) == 0 {
			return fmt.Errorf("at least one rss feed is required for the rss news provider")
		}
	default:
		return fmt.Errorf("unknown news provider %q", c.News.Provider)
	}

	if _, err := url.ParseRequestURI(c.AlphaVantage.BaseURL); err != nil {
		return fmt.Errorf("invalid alpha vantage base url: %w", err)
	}
	if c.AlphaVantage.RequestsPerMinute <= 0 {
		return fmt.Errorf("alpha vantage requests_per_minute must be positive")
	}

	if c.News.RefreshInterval <= 0 {
		return fmt.Errorf("news refresh_interval must be positive")
	}
	if c.News.DefaultLimit < 1 || c.News.DefaultLimit > 1000 {
		return fmt.Errorf("news default_limit must be between 1 and 1000")
	}
	if strings.TrimSpace(c.News.AssetClass) == "" {
		return fmt.Errorf("news asset_class is required")
	}

	if c.Market.UpdateInterval <= 0 {
		return fmt.Errorf("market update_interval must be positive")
	}

	if c.Analysis.NewsLimit < 1 {
		return fmt.Errorf("analysis news_limit must be at least 1")
	}

	switch c.LLM.Provider {
	case "openai":
	case "gemini":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm api key is required for gemini")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram bot token and chat_id are required when telegram is enabled")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	u := url.URL{
		Scheme: "clickhouse",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
