package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Redis    Redis    `mapstructure:"redis"`
	JWT      JWT      `mapstructure:"jwt"`
	OpenAI   OpenAI   `mapstructure:"openai"`
	Market   Market   `mapstructure:"market"`
	Logger   Logger   `mapstructure:"logger"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Database holds the PostgreSQL connection string.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Redis holds the configuration for the Redis client.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWT holds the token signing configuration. Secret is required; the
// process refuses to start without it.
type JWT struct {
	Secret     string `mapstructure:"secret"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// OpenAI holds the configuration for the chat completion client.
type OpenAI struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Market holds the configuration for the background event generator.
type Market struct {
	EventIntervalSeconds int `mapstructure:"event_interval_seconds"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ErrMissingJWTSecret is returned by Load when no signing secret is
// configured. Token issuance cannot work without one, so callers
// should treat this as fatal.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Load reads configuration from environment variables, optionally
// seeded from a .env file in the working directory.
func Load() (Config, error) {
	// A missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("jwt.ttl_minutes", 30)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout_seconds", 15)
	v.SetDefault("openai.rate_limit", 5)
	v.SetDefault("openai.rate_limit_burst", 2)
	v.SetDefault("market.event_interval_seconds", 300)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("redis.addr", "127.0.0.1:6379")

	// Bind every key we read so AutomaticEnv resolves them without a
	// config file present (JWT_SECRET, DATABASE_DSN, OPENAI_API_KEY...).
	for _, key := range []string{
		"server.port", "server.allowed_origins",
		"database.dsn",
		"redis.addr", "redis.password", "redis.db",
		"jwt.secret", "jwt.ttl_minutes",
		"openai.api_key", "openai.base_url", "openai.model",
		"openai.max_tokens", "openai.temperature", "openai.timeout_seconds",
		"openai.rate_limit", "openai.rate_limit_burst",
		"market.event_interval_seconds",
		"logger.level", "logger.format",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.JWT.Secret == "" {
		return Config{}, ErrMissingJWTSecret
	}
	return cfg, nil
}
