package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Embedding providers accepted by EMBEDDING_PROVIDER
const (
	EmbeddingProviderRemote = "remote"
	EmbeddingProviderHash   = "hash"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Data       DataConfig
	Search     SearchConfig
	Embedding  EmbeddingConfig
	PostgreSQL PostgreSQLConfig
	Fallback   FallbackConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// DataConfig points at the four CSV tables loaded at startup
type DataConfig struct {
	Dir                   string
	ListingsFile          string
	BuildingsFile         string
	ListingAmenitiesFile  string
	BuildingAmenitiesFile string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	TopK int
}

// EmbeddingConfig holds sentence-embedding provider configuration
type EmbeddingConfig struct {
	Provider       string
	APIBase        string
	APIKey         string
	Model          string
	Dimensions     int
	BatchSize      int
	QueryCacheSize int
	Timeout        time.Duration
}

// PostgreSQLConfig holds the optional embedding cache database configuration.
// An empty DSN disables the cache.
type PostgreSQLConfig struct {
	DSN                string
	MaxConnections     int
	MaxIdleConnections int
}

// FallbackConfig holds the conversational fallback API configuration
type FallbackConfig struct {
	APIURL      string
	APIToken    string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("PORT", getEnvAsInt("SERVER_PORT", 5000)),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Data: DataConfig{
			Dir:                   getEnv("DATA_DIR", "data"),
			ListingsFile:          getEnv("LISTINGS_CSV", "listings.csv"),
			BuildingsFile:         getEnv("BUILDINGS_CSV", "buildings.csv"),
			ListingAmenitiesFile:  getEnv("LISTING_AMENITIES_CSV", "listingamenities.csv"),
			BuildingAmenitiesFile: getEnv("BUILDING_AMENITIES_CSV", "buildingsamenities.csv"),
		},
		Search: SearchConfig{
			TopK: getEnvAsInt("SEARCH_TOP_K", 5),
		},
		Embedding: EmbeddingConfig{
			Provider:       getEnv("EMBEDDING_PROVIDER", EmbeddingProviderRemote),
			APIBase:        getEnv("EMBEDDING_API_BASE", "http://localhost:8081/v1"),
			APIKey:         getEnv("EMBEDDING_API_KEY", "none"),
			Model:          getEnv("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
			Dimensions:     getEnvAsInt("EMBEDDING_DIMENSIONS", 384),
			BatchSize:      getEnvAsInt("EMBEDDING_BATCH_SIZE", 64),
			QueryCacheSize: getEnvAsInt("EMBEDDING_QUERY_CACHE_SIZE", 1024),
			Timeout:        getEnvAsDuration("EMBEDDING_TIMEOUT", 60*time.Second),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Fallback: FallbackConfig{
			APIURL:      getEnv("FALLBACK_API_URL", "https://api-inference.huggingface.co/models/facebook/blenderbot-400M-distill"),
			APIToken:    getEnv("HF_API_TOKEN", ""),
			MaxAttempts: getEnvAsInt("FALLBACK_MAX_ATTEMPTS", 3),
			RetryDelay:  getEnvAsDuration("FALLBACK_RETRY_DELAY", 5*time.Second),
			Timeout:     getEnvAsDuration("FALLBACK_TIMEOUT", 30*time.Second),
			RateLimit:   getEnvAsFloat("FALLBACK_RATE_LIMIT", 2),
			RateBurst:   getEnvAsInt("FALLBACK_RATE_BURST", 4),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Search.TopK < 1 {
		errs = append(errs, fmt.Errorf("SEARCH_TOP_K must be at least 1, got %d", c.Search.TopK))
	}
	if c.Fallback.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("FALLBACK_MAX_ATTEMPTS must be at least 1, got %d", c.Fallback.MaxAttempts))
	}
	if c.Embedding.Dimensions < 1 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSIONS must be at least 1, got %d", c.Embedding.Dimensions))
	}
	switch c.Embedding.Provider {
	case EmbeddingProviderRemote, EmbeddingProviderHash:
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider))
	}
	return errors.Join(errs...)
}

// ListingsPath returns the listings CSV location
func (d DataConfig) ListingsPath() string { return filepath.Join(d.Dir, d.ListingsFile) }

// BuildingsPath returns the buildings CSV location
func (d DataConfig) BuildingsPath() string { return filepath.Join(d.Dir, d.BuildingsFile) }

// ListingAmenitiesPath returns the listing amenities CSV location
func (d DataConfig) ListingAmenitiesPath() string {
	return filepath.Join(d.Dir, d.ListingAmenitiesFile)
}

// BuildingAmenitiesPath returns the building amenities CSV location
func (d DataConfig) BuildingAmenitiesPath() string {
	return filepath.Join(d.Dir, d.BuildingAmenitiesFile)
}

// CacheEnabled reports whether record embeddings are cached in PostgreSQL
func (c *Config) CacheEnabled() bool {
	return c.PostgreSQL.DSN != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
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
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
