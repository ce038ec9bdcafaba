// Package cache provides Redis-backed caching middleware for provider
// responses. Scoring calls are deterministic by construction (low
// temperature, idempotency-keyed), so a re-submitted learner response
// within the TTL is served from cache instead of paying for another
// provider call. Only successful responses are cached; cache failures
// degrade to a direct provider call.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pteprep/scoring/internal/scoring/configuration"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/internal/scoring/transport"
)

const (
	defaultPoolSize   = 10
	connectionTimeout = 5 * time.Second

	keyPrefix = "scoring:response:"
)

// Store is the minimal key-value surface the middleware needs. Satisfied
// by redisStore in production and by in-memory fakes in tests.
type Store interface {
	// Get returns the cached payload, or scorerrors.ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// cacheMiddleware caches successful provider responses keyed by
// idempotency key. All counters are updated atomically.
type cacheMiddleware struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// NewMiddleware creates caching middleware over an explicit store.
func NewMiddleware(cfg configuration.CacheConfig, store Store) transport.Middleware {
	cm := &cacheMiddleware{
		store:  store,
		ttl:    cfg.TTL,
		logger: slog.Default().With("component", "cache"),
	}
	return cm.middleware()
}

// NewMiddlewareWithRedis creates caching middleware backed by Redis. A
// failed connection test returns a pass-through middleware so the pipeline
// keeps working without caching.
func NewMiddlewareWithRedis(ctx context.Context, cfg configuration.CacheConfig, client *redis.Client) transport.Middleware {
	if !cfg.Enabled {
		return passthrough
	}

	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: defaultPoolSize,
		})
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(timeoutCtx).Err(); err != nil {
		slog.Warn("redis connection failed, response cache disabled", "error", err)
		return passthrough
	}

	return NewMiddleware(cfg, &redisStore{client: client})
}

func passthrough(next transport.Handler) transport.Handler { return next }

func (c *cacheMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			// Health probes must always reach the backend.
			if req.Operation != transport.OpScore || req.IdempotencyKey == "" {
				return next.Handle(ctx, req)
			}

			key := buildKey(req)

			if data, err := c.store.Get(ctx, key); err == nil {
				var resp transport.Response
				if unmarshalErr := json.Unmarshal(data, &resp); unmarshalErr == nil {
					c.hits.Add(1)
					c.logger.Debug("cache hit",
						"provider", req.Provider,
						"model", req.Model)
					return &resp, nil
				}
				c.errs.Add(1)
			} else if !errors.Is(err, scorerrors.ErrCacheMiss) {
				c.errs.Add(1)
				c.logger.Warn("cache read error", "error", err)
			} else {
				c.misses.Add(1)
			}

			resp, err := next.Handle(ctx, req)
			if err != nil {
				return nil, err
			}

			if resp != nil {
				if data, marshalErr := json.Marshal(resp); marshalErr == nil {
					if setErr := c.store.Set(ctx, key, data, c.ttl); setErr != nil {
						c.errs.Add(1)
						c.logger.Warn("cache write error", "error", setErr)
					}
				}
			}
			return resp, nil
		})
	}
}

// buildKey namespaces cached entries by provider and model so a model
// upgrade never serves scores produced by the previous model.
func buildKey(req *transport.Request) string {
	return fmt.Sprintf("%s%s:%s:%s", keyPrefix, req.Provider, req.Model, req.IdempotencyKey)
}

// redisStore adapts a go-redis client to the Store interface.
type redisStore struct {
	client *redis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, scorerrors.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}
