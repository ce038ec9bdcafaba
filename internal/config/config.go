// Package config defines process-level configuration for the scoring
// service and its loading from defaults, an optional YAML file, and
// environment variables.
package config

import (
	"os"
	"time"

	"github.com/pteprep/scoring/internal/scoring/configuration"
)

// Config contains process configuration for the scoring service.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects json or text output.
	LogFormat string `koanf:"log_format"`

	// RedactPayloads controls whether learner content appears in logs.
	RedactPayloads bool `koanf:"redact_payloads"`

	// MetricsEnabled toggles the Prometheus /metrics endpoint.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// CORSOrigins lists allowed browser origins. Empty allows none.
	CORSOrigins []string `koanf:"cors_origins"`

	// DefaultPriority is the provider attempt order.
	DefaultPriority []string `koanf:"default_priority"`

	// AttemptTimeout bounds each provider attempt.
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`

	// HTTPTimeout bounds each outbound HTTP call to a provider.
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// ShutdownTimeout bounds graceful HTTP server shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Providers map[string]Provider `koanf:"providers"`
	Retry     Retry               `koanf:"retry"`
	RateLimit RateLimit           `koanf:"rate_limit"`
	Cache     Cache               `koanf:"cache"`
}

// Provider holds one scoring backend's settings. API keys are never placed
// in config files; APIKeyEnv names the environment variable to read.
type Provider struct {
	Endpoint    string            `koanf:"endpoint"`
	APIKeyEnv   string            `koanf:"api_key_env"`
	Model       string            `koanf:"model"`
	HealthModel string            `koanf:"health_model"`
	Headers     map[string]string `koanf:"headers"`
}

// Retry controls per-provider retry behavior.
type Retry struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
	UseJitter       bool          `koanf:"use_jitter"`
}

// RateLimit controls the local per-provider token bucket.
type RateLimit struct {
	Enabled         bool    `koanf:"enabled"`
	TokensPerSecond float64 `koanf:"tokens_per_second"`
	BurstSize       int     `koanf:"burst_size"`
}

// Cache controls the Redis response cache.
type Cache struct {
	Enabled       bool          `koanf:"enabled"`
	TTL           time.Duration `koanf:"ttl"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
}

// New creates a Config with production defaults.
func New() *Config {
	base := configuration.DefaultConfig()

	providers := make(map[string]Provider, len(base.Providers))
	for name, p := range base.Providers {
		providers[name] = Provider{
			Endpoint:    p.Endpoint,
			APIKeyEnv:   p.APIKeyEnv,
			Model:       p.Model,
			HealthModel: p.HealthModel,
			Headers:     p.Headers,
		}
	}

	return &Config{
		Addr:            ":8080",
		LogLevel:        base.Observability.LogLevel,
		LogFormat:       base.Observability.LogFormat,
		RedactPayloads:  base.Observability.RedactPayloads,
		MetricsEnabled:  base.Observability.MetricsEnabled,
		DefaultPriority: base.DefaultPriority,
		AttemptTimeout:  base.DefaultTimeout,
		HTTPTimeout:     base.HTTPTimeout,
		ShutdownTimeout: 10 * time.Second,
		Providers:       providers,
		Retry: Retry{
			MaxAttempts:     base.Retry.MaxAttempts,
			InitialInterval: base.Retry.InitialInterval,
			MaxInterval:     base.Retry.MaxInterval,
			Multiplier:      base.Retry.Multiplier,
			UseJitter:       base.Retry.UseJitter,
		},
		RateLimit: RateLimit{
			Enabled:         base.RateLimit.Enabled,
			TokensPerSecond: base.RateLimit.TokensPerSecond,
			BurstSize:       base.RateLimit.BurstSize,
		},
		Cache: Cache{
			Enabled:   base.Cache.Enabled,
			TTL:       base.Cache.TTL,
			RedisAddr: base.Cache.RedisAddr,
			RedisDB:   base.Cache.RedisDB,
		},
	}
}

// Scoring converts the process config into the pipeline's configuration,
// resolving provider API keys from the environment.
func (c *Config) Scoring() *configuration.Config {
	providers := make(map[string]configuration.ProviderConfig, len(c.Providers))
	for name, p := range c.Providers {
		apiKey := ""
		if p.APIKeyEnv != "" {
			apiKey = os.Getenv(p.APIKeyEnv)
		}
		providers[name] = configuration.ProviderConfig{
			Endpoint:    p.Endpoint,
			APIKey:      apiKey,
			APIKeyEnv:   p.APIKeyEnv,
			Model:       p.Model,
			HealthModel: p.HealthModel,
			Headers:     p.Headers,
		}
	}

	return &configuration.Config{
		HTTPTimeout:     c.HTTPTimeout,
		Providers:       providers,
		DefaultPriority: c.DefaultPriority,
		DefaultTimeout:  c.AttemptTimeout,
		Retry: configuration.RetryConfig{
			MaxAttempts:     c.Retry.MaxAttempts,
			InitialInterval: c.Retry.InitialInterval,
			MaxInterval:     c.Retry.MaxInterval,
			Multiplier:      c.Retry.Multiplier,
			UseJitter:       c.Retry.UseJitter,
		},
		RateLimit: configuration.RateLimitConfig{
			Enabled:         c.RateLimit.Enabled,
			TokensPerSecond: c.RateLimit.TokensPerSecond,
			BurstSize:       c.RateLimit.BurstSize,
		},
		Cache: configuration.CacheConfig{
			Enabled:       c.Cache.Enabled,
			TTL:           c.Cache.TTL,
			RedisAddr:     c.Cache.RedisAddr,
			RedisPassword: c.Cache.RedisPassword,
			RedisDB:       c.Cache.RedisDB,
		},
		Observability: configuration.ObservabilityConfig{
			MetricsEnabled: c.MetricsEnabled,
			LogLevel:       c.LogLevel,
			LogFormat:      c.LogFormat,
			RedactPayloads: c.RedactPayloads,
		},
	}
}
