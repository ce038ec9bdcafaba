// Package ratelimit provides a local token-bucket limiter for provider
// calls. Each provider gets its own bucket so one saturated backend cannot
// starve the others of request capacity.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/time/rate"

	"github.com/pteprep/scoring/internal/scoring/configuration"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/internal/scoring/transport"
)

var (
	errTokensPerSecondInvalid = errors.New("tokensPerSecond must be greater than 0")
	errBurstSizeInvalid       = errors.New("burstSize must be greater than 0")
)

// rateLimitMiddleware holds per-provider token buckets. Buckets are created
// lazily on first use; the provider set is small and fixed so no TTL
// cleanup is needed.
type rateLimitMiddleware struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	config   configuration.RateLimitConfig
	logger   *slog.Logger
}

// NewMiddleware creates rate limiting middleware from the given
// configuration. Health probes pass through unlimited: a saturated bucket
// must not make a healthy provider look down.
func NewMiddleware(cfg configuration.RateLimitConfig) (transport.Middleware, error) {
	if cfg.TokensPerSecond <= 0 {
		return nil, errTokensPerSecondInvalid
	}
	if cfg.BurstSize <= 0 {
		return nil, errBurstSizeInvalid
	}

	rl := &rateLimitMiddleware{
		limiters: make(map[string]*rate.Limiter),
		config:   cfg,
		logger:   slog.Default().With("component", "ratelimit"),
	}
	return rl.middleware(), nil
}

func (r *rateLimitMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if req.Operation == transport.OpHealth {
				return next.Handle(ctx, req)
			}
			if err := r.check(req.Provider); err != nil {
				r.logger.Warn("request rate limited",
					"provider", req.Provider,
					"operation", req.Operation)
				return nil, err
			}
			return next.Handle(ctx, req)
		})
	}
}

// check consumes one token from the provider's bucket, or reports how long
// the caller should wait. The probe reservation is cancelled so a denied
// request does not leak bucket capacity.
func (r *rateLimitMiddleware) check(provider string) error {
	limiter := r.getOrCreateLimiter(provider)

	if !limiter.Allow() {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		retryAfter := int(math.Ceil(delay.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}

		return &scorerrors.RateLimitError{
			Provider:   provider,
			Limit:      int(r.config.TokensPerSecond),
			RetryAfter: retryAfter,
			LocalLimit: true,
		}
	}
	return nil
}

func (r *rateLimitMiddleware) getOrCreateLimiter(provider string) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.limiters[provider]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok := r.limiters[provider]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(r.config.TokensPerSecond), r.config.BurstSize)
	r.limiters[provider] = limiter
	return limiter
}
