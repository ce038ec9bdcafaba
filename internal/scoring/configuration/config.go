// Package configuration holds the static, injected configuration for the
// scoring pipeline. Everything here is read-only after process start and may
// be freely shared across concurrent scoring requests.
package configuration

import (
	"net/http"
	"time"
)

// Config holds the full configuration for the scoring orchestrator:
// provider settings, attempt policy, and resilience parameters.
type Config struct {
	// HTTP client configuration.
	HTTPTimeout time.Duration `json:"http_timeout"`
	HTTPClient  *http.Client  `json:"-"`

	// Providers maps canonical provider names to their settings.
	Providers map[string]ProviderConfig `json:"providers"`

	// DefaultPriority is the provider order used when a request carries no
	// explicit priority list.
	DefaultPriority []string `json:"default_priority"`

	// DefaultTimeout bounds each provider attempt when the request does not
	// supply its own timeout.
	DefaultTimeout time.Duration `json:"default_timeout"`

	// Retry controls per-provider retry behavior within a single attempt.
	Retry RetryConfig `json:"retry"`

	// RateLimit controls the local token-bucket limiter.
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Cache controls the Redis success-only response cache.
	Cache CacheConfig `json:"cache"`

	// Observability controls logging and metrics.
	Observability ObservabilityConfig `json:"observability"`
}

// ProviderConfig holds provider-specific settings and authentication.
type ProviderConfig struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"-"` // Sensitive, not serialized
	// APIKeyEnv names the environment variable holding the key, for
	// config-file driven deployments.
	APIKeyEnv string `json:"api_key_env"`
	// Model is the model identifier used for scoring calls.
	Model string `json:"model"`
	// HealthModel overrides Model for health probes; empty means use Model.
	HealthModel string            `json:"health_model,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// RetryConfig controls retry behavior for failed provider calls. Retries
// happen inside a single dispatcher attempt, before the dispatcher falls
// through to the next candidate provider.
type RetryConfig struct {
	MaxAttempts     int           `json:"max_attempts"`     // Maximum attempts (1 = no retry)
	InitialInterval time.Duration `json:"initial_interval"` // Starting backoff duration
	MaxInterval     time.Duration `json:"max_interval"`     // Maximum backoff duration
	Multiplier      float64       `json:"multiplier"`       // Exponential backoff multiplier
	UseJitter       bool          `json:"use_jitter"`       // Enable full jitter randomization
}

// RateLimitConfig controls the in-memory token bucket applied per provider.
type RateLimitConfig struct {
	Enabled         bool    `json:"enabled"`
	TokensPerSecond float64 `json:"tokens_per_second"`
	BurstSize       int     `json:"burst_size"`
}

// CacheConfig controls Redis-based response caching. Identical learner
// responses re-submitted within the TTL are served from cache instead of
// paying for another provider call.
type CacheConfig struct {
	Enabled       bool          `json:"enabled"`
	TTL           time.Duration `json:"ttl"`
	RedisAddr     string        `json:"redis_addr"`
	RedisPassword string        `json:"-"` // Sensitive
	RedisDB       int           `json:"redis_db"`
}

// ObservabilityConfig controls structured logging and metrics emission.
type ObservabilityConfig struct {
	MetricsEnabled bool   `json:"metrics_enabled"`
	LogLevel       string `json:"log_level"`
	LogFormat      string `json:"log_format"`
	RedactPayloads bool   `json:"redact_payloads"`
}
