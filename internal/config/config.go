// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port                   string  `mapstructure:"PORT"`
	Env                    string  `mapstructure:"APP_ENV"`
	APIBaseURL             string  `mapstructure:"API_BASE_URL"`
	UpstreamTimeoutSeconds int     `mapstructure:"UPSTREAM_TIMEOUT_SECONDS"`
	RedisURL               string  `mapstructure:"REDIS_URL"`
	CacheTTLSeconds        int     `mapstructure:"CACHE_TTL_SECONDS"`
	TagsCacheTTLSeconds    int     `mapstructure:"TAGS_CACHE_TTL_SECONDS"`
	LocalCacheSize         int     `mapstructure:"LOCAL_CACHE_SIZE"`
	SessionTTLMinutes      int     `mapstructure:"SESSION_TTL_MINUTES"`
	MaxSessions            int     `mapstructure:"MAX_SESSIONS"`
	AllowedOrigins         string  `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags           string  `mapstructure:"FEATURE_FLAGS"`
	TracingEnabled         bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter        string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint           string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio    float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional; env vars and defaults are enough to run.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "8380")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("API_BASE_URL", "https://dummyjson.com")
	viper.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 10)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("TAGS_CACHE_TTL_SECONDS", 86400)
	viper.SetDefault("LOCAL_CACHE_SIZE", 512)
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("MAX_SESSIONS", 10000)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.APIBaseURL = strings.TrimRight(strings.TrimSpace(config.APIBaseURL), "/")
	config.TracingExporter = strings.ToLower(strings.TrimSpace(config.TracingExporter))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		return errors.New("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}
	if c.CacheTTLSeconds < 0 || c.TagsCacheTTLSeconds < 0 {
		return errors.New("cache TTLs must not be negative")
	}
	if c.LocalCacheSize <= 0 {
		return errors.New("LOCAL_CACHE_SIZE must be positive")
	}
	if c.SessionTTLMinutes <= 0 {
		return errors.New("SESSION_TTL_MINUTES must be positive")
	}
	if c.MaxSessions <= 0 {
		return errors.New("MAX_SESSIONS must be positive")
	}
	switch c.TracingExporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("TRACING_EXPORTER must be stdout or otlp, got %q", c.TracingExporter)
	}
	if c.TracingSamplerRatio < 0 || c.TracingSamplerRatio > 1 {
		return errors.New("TRACING_SAMPLER_RATIO must be within [0, 1]")
	}

	if c.IsProduction() {
		if u.Scheme != "https" {
			log.Println("WARNING: API_BASE_URL is not https in production.")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	}

	return nil
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// UpstreamTimeout returns the per-request timeout for the remote API.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// CacheTTL returns the TTL for cached posts, comments and users.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// TagsCacheTTL returns the TTL for the tag list, which rarely changes.
func (c *Config) TagsCacheTTL() time.Duration {
	return time.Duration(c.TagsCacheTTLSeconds) * time.Second
}

// SessionTTL returns the idle lifetime of a page session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
