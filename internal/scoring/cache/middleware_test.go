package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pteprep/scoring/internal/scoring/configuration"
	scorerrors "github.com/pteprep/scoring/internal/scoring/errors"
	"github.com/pteprep/scoring/internal/scoring/transport"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, scorerrors.ErrCacheMiss
	}
	return data, nil
}

func (s *fakeStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func countingHandler(calls *atomic.Int32, resp *transport.Response, err error) transport.Handler {
	return transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		calls.Add(1)
		return resp, err
	})
}

func scoreRequest(key string) *transport.Request {
	return &transport.Request{
		Operation:      transport.OpScore,
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		IdempotencyKey: key,
	}
}

func TestCacheMiddleware_SecondCallServedFromCache(t *testing.T) {
	store := newFakeStore()
	mw := NewMiddleware(configuration.CacheConfig{TTL: time.Hour}, store)

	var calls atomic.Int32
	handler := mw(countingHandler(&calls, &transport.Response{Content: `{"overall": 70}`}, nil))

	req := scoreRequest("abc123")

	first, err := handler.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	second, err := handler.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second call must not reach the provider")
	assert.Equal(t, first.Content, second.Content)
}

func TestCacheMiddleware_ErrorsNotCached(t *testing.T) {
	store := newFakeStore()
	mw := NewMiddleware(configuration.CacheConfig{TTL: time.Hour}, store)

	var calls atomic.Int32
	provErr := &scorerrors.ProviderError{Provider: "openai", Type: scorerrors.ErrorTypeProvider, Message: "down"}
	handler := mw(countingHandler(&calls, nil, provErr))

	req := scoreRequest("abc123")

	_, err := handler.Handle(context.Background(), req)
	require.Error(t, err)
	_, err = handler.Handle(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, int32(2), calls.Load(), "failures must be retried, never served from cache")
	assert.Empty(t, store.data)
}

func TestCacheMiddleware_KeyIncludesProviderAndModel(t *testing.T) {
	store := newFakeStore()
	mw := NewMiddleware(configuration.CacheConfig{TTL: time.Hour}, store)

	var calls atomic.Int32
	handler := mw(countingHandler(&calls, &transport.Response{Content: "ok"}, nil))

	_, err := handler.Handle(context.Background(), scoreRequest("abc123"))
	require.NoError(t, err)

	other := scoreRequest("abc123")
	other.Model = "gpt-4o"
	_, err = handler.Handle(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load(), "a different model must not hit the same entry")
	assert.Len(t, store.data, 2)
}

func TestCacheMiddleware_BypassesWithoutIdempotencyKey(t *testing.T) {
	store := newFakeStore()
	mw := NewMiddleware(configuration.CacheConfig{TTL: time.Hour}, store)

	var calls atomic.Int32
	handler := mw(countingHandler(&calls, &transport.Response{Content: "ok"}, nil))

	req := scoreRequest("")
	_, err := handler.Handle(context.Background(), req)
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, store.data)
}

func TestCacheMiddleware_HealthNeverCached(t *testing.T) {
	store := newFakeStore()
	mw := NewMiddleware(configuration.CacheConfig{TTL: time.Hour}, store)

	var calls atomic.Int32
	handler := mw(countingHandler(&calls, &transport.Response{Content: "ok"}, nil))

	req := scoreRequest("abc123")
	req.Operation = transport.OpHealth

	_, err := handler.Handle(context.Background(), req)
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheMiddleware_StoreFailureDegradesGracefully(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("redis: connection pool exhausted")
	store.setErr = errors.New("redis: connection pool exhausted")
	mw := NewMiddleware(configuration.CacheConfig{TTL: time.Hour}, store)

	var calls atomic.Int32
	handler := mw(countingHandler(&calls, &transport.Response{Content: "ok"}, nil))

	resp, err := handler.Handle(context.Background(), scoreRequest("abc123"))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(1), calls.Load())
}
