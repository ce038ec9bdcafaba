package configuration

import "time"

// HTTP and connection constants.
const (
	DefaultMaxIdleConns       = 100
	DefaultIdleTimeoutSeconds = 90
	DefaultTLSTimeoutSeconds  = 10
	DefaultHTTPTimeoutSeconds = 60
)

// Attempt policy constants. The per-attempt timeout default comes from the
// operational defaults of the original deployment; callers override it per
// request when they need a tighter budget.
const (
	DefaultAttemptTimeout    = 30 * time.Second
	DefaultMaxAttempts       = 2
	DefaultInitialInterval   = 250 * time.Millisecond
	DefaultMaxInterval       = 2 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Rate limiting and cache constants.
const (
	DefaultTokensPerSecond = 10
	DefaultBurstSize       = 20
	DefaultCacheTTL        = 1 * time.Hour
)

// Supported provider identifiers, also the default attempt order.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// DefaultPriority returns the default provider attempt order as a fresh
// slice to prevent mutation of shared state.
func DefaultPriority() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}
}

// DefaultConfig returns production-ready configuration with sensible
// defaults. Provider API keys are not defaulted - they must be injected.
func DefaultConfig() *Config {
	return &Config{
		HTTPTimeout:     DefaultHTTPTimeoutSeconds * time.Second,
		DefaultPriority: DefaultPriority(),
		DefaultTimeout:  DefaultAttemptTimeout,
		Providers: map[string]ProviderConfig{
			ProviderOpenAI:    {APIKeyEnv: "OPENAI_API_KEY", Model: "gpt-4o-mini"},
			ProviderAnthropic: {APIKeyEnv: "ANTHROPIC_API_KEY", Model: "claude-3-5-haiku-latest"},
			ProviderGoogle:    {APIKeyEnv: "GEMINI_API_KEY", Model: "gemini-1.5-flash"},
		},
		Retry: RetryConfig{
			MaxAttempts:     DefaultMaxAttempts,
			InitialInterval: DefaultInitialInterval,
			MaxInterval:     DefaultMaxInterval,
			Multiplier:      DefaultBackoffMultiplier,
			UseJitter:       true,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			TokensPerSecond: DefaultTokensPerSecond,
			BurstSize:       DefaultBurstSize,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     DefaultCacheTTL,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: true,
			LogLevel:       "info",
			LogFormat:      "json",
			RedactPayloads: true,
		},
	}
}
