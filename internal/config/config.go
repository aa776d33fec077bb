// Package config provides configuration management for the dealradar
// backend. Configuration is environment-first with an optional YAML
// overlay file, and validated before the process starts serving.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment names.
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" validate:"required"`
	Environment   string `yaml:"environment" validate:"oneof=development staging production"`
	LogLevel      string `yaml:"log_level"`

	// System of record
	DatabaseURL string `yaml:"database_url" validate:"required"`

	// Cache store
	Redis        RedisConfig `yaml:"redis"`
	CacheEnabled bool        `yaml:"cache_enabled"`
	Cache        CacheConfig `yaml:"cache"`

	// Marketplace connectors
	Ebay    EbayConfig    `yaml:"ebay"`
	Scraper ScraperConfig `yaml:"scraper"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableCORS    bool `yaml:"enable_cors"`
}

// RedisConfig addresses the remote cache store.
type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// CacheConfig carries the per-namespace TTLs. These are the hot-reloadable
// tunables watched in development.
type CacheConfig struct {
	DefaultTTL      time.Duration `yaml:"default_ttl" validate:"gt=0"`
	ProductTTL      time.Duration `yaml:"product_ttl" validate:"gt=0"`
	SearchTTL       time.Duration `yaml:"search_ttl" validate:"gt=0"`
	OffersTTL       time.Duration `yaml:"offers_ttl" validate:"gt=0"`
	PriceHistoryTTL time.Duration `yaml:"price_history_ttl" validate:"gt=0"`
	ViewCounterTTL  time.Duration `yaml:"view_counter_ttl" validate:"gt=0"`
}

// EbayConfig configures the eBay Browse API client.
type EbayConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// ScraperConfig configures the Amazon/Myntra scraper service client.
type ScraperConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Load reads configuration from the environment, applies the optional
// CONFIG_FILE YAML overlay and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", Development),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/dealradar?sslmode=disable"),

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		CacheEnabled: getEnvBool("CACHE_ENABLED", true),
		Cache: CacheConfig{
			DefaultTTL:      getEnvSeconds("CACHE_DEFAULT_TTL", 3600),
			ProductTTL:      getEnvSeconds("CACHE_PRODUCT_TTL", 3600),
			SearchTTL:       getEnvSeconds("CACHE_SEARCH_TTL", 1800),
			OffersTTL:       getEnvSeconds("CACHE_OFFERS_TTL", 1800),
			PriceHistoryTTL: getEnvSeconds("CACHE_PRICE_HISTORY_TTL", 3600),
			ViewCounterTTL:  getEnvSeconds("CACHE_VIEW_COUNTER_TTL", 86400),
		},

		Ebay: EbayConfig{
			BaseURL: getEnv("EBAY_BASE_URL", "https://api.ebay.com"),
			Token:   getEnv("EBAY_TOKEN", ""),
			Timeout: getEnvSeconds("EBAY_TIMEOUT", 10),
		},
		Scraper: ScraperConfig{
			BaseURL: getEnv("SCRAPER_BASE_URL", "http://localhost:5000"),
			Timeout: getEnvSeconds("SCRAPER_TIMEOUT", 30),
		},

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyOverlay(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UnmarshalYAML accepts Go duration strings ("30m", "1h") for TTLs,
// leaving fields the overlay omits at their env-derived values.
func (c *CacheConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		DefaultTTL      string `yaml:"default_ttl"`
		ProductTTL      string `yaml:"product_ttl"`
		SearchTTL       string `yaml:"search_ttl"`
		OffersTTL       string `yaml:"offers_ttl"`
		PriceHistoryTTL string `yaml:"price_history_ttl"`
		ViewCounterTTL  string `yaml:"view_counter_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	for _, field := range []struct {
		dst *time.Duration
		src string
	}{
		{&c.DefaultTTL, raw.DefaultTTL},
		{&c.ProductTTL, raw.ProductTTL},
		{&c.SearchTTL, raw.SearchTTL},
		{&c.OffersTTL, raw.OffersTTL},
		{&c.PriceHistoryTTL, raw.PriceHistoryTTL},
		{&c.ViewCounterTTL, raw.ViewCounterTTL},
	} {
		if err := setDuration(field.dst, field.src); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalYAML accepts a duration string for the connector timeout.
func (c *EbayConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
		Timeout string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.BaseURL != "" {
		c.BaseURL = raw.BaseURL
	}
	if raw.Token != "" {
		c.Token = raw.Token
	}
	return setDuration(&c.Timeout, raw.Timeout)
}

// UnmarshalYAML accepts a duration string for the connector timeout.
func (c *ScraperConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.BaseURL != "" {
		c.BaseURL = raw.BaseURL
	}
	return setDuration(&c.Timeout, raw.Timeout)
}

func setDuration(dst *time.Duration, src string) error {
	if src == "" {
		return nil
	}
	parsed, err := time.ParseDuration(src)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", src, err)
	}
	*dst = parsed
	return nil
}

// applyOverlay merges a YAML file over the env-derived configuration.
func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvSeconds reads a duration expressed as whole seconds.
func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
