package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pteprep/scoring/internal/scoring/cache"
	"github.com/pteprep/scoring/internal/scoring/configuration"
	"github.com/pteprep/scoring/internal/scoring/providers"
	"github.com/pteprep/scoring/internal/scoring/ratelimit"
	"github.com/pteprep/scoring/internal/scoring/retry"
	"github.com/pteprep/scoring/internal/scoring/transport"
)

// NewPipeline assembles the full scoring stack from configuration: provider
// adapters behind a shared HTTP client, the middleware chain, one Scorer
// per configured provider, and the orchestrator on top.
//
// Middleware layering, outermost first: logging observes every logical
// call, cache short-circuits repeat calls before any resilience cost is
// paid, retry re-runs the rate-limited core per attempt.
func NewPipeline(ctx context.Context, cfg *configuration.Config, logger *slog.Logger, metrics Metrics) (*Orchestrator, error) {
	if cfg == nil {
		cfg = configuration.DefaultConfig()
	}

	router, err := providers.NewRouter(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          configuration.DefaultMaxIdleConns,
				IdleConnTimeout:       configuration.DefaultIdleTimeoutSeconds * time.Second,
				TLSHandshakeTimeout:   configuration.DefaultTLSTimeoutSeconds * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
			Timeout: cfg.HTTPTimeout,
		}
	}

	coreHandler := transport.NewHTTPHandler(httpClient, router)

	// Attempt-level middleware runs once per retry attempt.
	var attemptMiddlewares []transport.Middleware
	if cfg.RateLimit.Enabled {
		rlMiddleware, err := ratelimit.NewMiddleware(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
		attemptMiddlewares = append(attemptMiddlewares, rlMiddleware)
	}
	attemptHandler := transport.Chain(coreHandler, attemptMiddlewares...)

	retryMiddleware, err := retry.NewMiddleware(cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize retry middleware: %w", err)
	}
	retryHandler := retryMiddleware(attemptHandler)

	// Call-level middleware runs once per logical call.
	callMiddlewares := []transport.Middleware{
		NewLoggingMiddleware(cfg.Observability, logger, metrics),
	}
	if cfg.Cache.Enabled {
		callMiddlewares = append(callMiddlewares, cache.NewMiddlewareWithRedis(ctx, cfg.Cache, nil))
	}

	handler := transport.Chain(retryHandler, callMiddlewares...)

	// One scorer per adapter the router built.
	scorers := make(map[string]Scorer, len(cfg.Providers))
	for _, name := range router.Names() {
		scorers[name] = NewScorer(name, cfg.Providers[name], handler)
	}

	return NewOrchestrator(scorers, cfg, logger, metrics), nil
}
