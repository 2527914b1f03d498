package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	MongoDB   MongoDBConfig   `json:"mongodb"`
	Upstream  UpstreamConfig  `json:"upstream"`
	Cache     CacheConfig     `json:"cache"`
	Retry     RetryConfig     `json:"retry"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// MongoDBConfig holds MongoDB connection configuration for the token store
type MongoDBConfig struct {
	URI             string        `json:"uri"`
	Database        string        `json:"database"`
	TokenCollection string        `json:"token_collection"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	MaxPoolSize     uint64        `json:"max_pool_size"`
}

// UpstreamConfig holds market-data provider configuration.
// An empty APIKey means the provider is never called and every miss is served
// from the synthetic generator.
type UpstreamConfig struct {
	BaseURL       string        `json:"base_url"`
	APIKey        string        `json:"api_key"`
	Timeout       time.Duration `json:"timeout"`
	FetchDeadline time.Duration `json:"fetch_deadline"`
}

// CacheConfig holds cache TTLs per resource type
type CacheConfig struct {
	PriceTTL      time.Duration `json:"price_ttl"`
	OHLCTTL       time.Duration `json:"ohlc_ttl"`
	OrderBookTTL  time.Duration `json:"order_book_ttl"`
	SweepInterval time.Duration `json:"sweep_interval"`
}

// RetryConfig holds upstream retry configuration
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
	Factor      float64       `json:"factor"`
}

// RateLimitConfig holds rate limiting configuration for our own surface
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	WindowSize        time.Duration `json:"window_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string   `json:"level"`
	Environment string   `json:"environment"`
	OutputPaths []string `json:"output_paths"`
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		MongoDB: MongoDBConfig{
			URI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:        getEnv("MONGODB_DATABASE", "bidance"),
			TokenCollection: getEnv("MONGODB_TOKEN_COLLECTION", "api_tokens"),
			ConnectTimeout:  getDurationEnv("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:     getUint64Env("MONGODB_MAX_POOL_SIZE", 100),
		},
		Upstream: UpstreamConfig{
			BaseURL:       getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:        getEnv("COINGECKO_API_KEY", ""),
			Timeout:       getDurationEnv("COINGECKO_TIMEOUT", 5*time.Second),
			FetchDeadline: getDurationEnv("COINGECKO_FETCH_DEADLINE", 20*time.Second),
		},
		Cache: CacheConfig{
			PriceTTL:      getDurationEnv("CACHE_PRICE_TTL", 15*time.Minute),
			OHLCTTL:       getDurationEnv("CACHE_OHLC_TTL", 5*time.Minute),
			OrderBookTTL:  getDurationEnv("CACHE_ORDER_BOOK_TTL", 30*time.Second),
			SweepInterval: getDurationEnv("CACHE_SWEEP_INTERVAL", time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts: getIntEnv("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getDurationEnv("RETRY_BASE_DELAY", time.Second),
			Factor:      getFloatEnv("RETRY_FACTOR", 2.0),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getIntEnv("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
			WindowSize:        getDurationEnv("RATE_LIMIT_WINDOW_SIZE", time.Minute),
			CleanupInterval:   getDurationEnv("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("LOG_ENVIRONMENT", "development"),
			OutputPaths: getStringSliceEnv("LOG_OUTPUT_PATHS", []string{"stdout"}),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getUint64Env(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uint64Value, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uint64Value
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}
