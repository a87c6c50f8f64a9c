package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/config"
	"github.com/orbstation/portal/upstream"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestAPIKey is the key FakeUpstream expects on every request.
const TestAPIKey = "test-api-key"

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}

// FakeUpstream is an httptest-backed stand-in for the game-server API.
// It enforces the X-API-KEY header and routes by URL path.
type FakeUpstream struct {
	t        *testing.T
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
}

// NewFakeUpstream starts a FakeUpstream; it shuts down with the test.
func NewFakeUpstream(t *testing.T) *FakeUpstream {
	t.Helper()
	f := &FakeUpstream{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, TestAPIKey, r.Header.Get("X-API-KEY"), "missing or wrong API key on %s", r.URL.Path)
		h, ok := f.handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

// Handle registers a handler for the given path.
func (f *FakeUpstream) Handle(path string, h http.HandlerFunc) {
	f.handlers[path] = h
}

// Respond registers a fixed status and JSON body for the given path.
func (f *FakeUpstream) Respond(path string, status int, body string) {
	f.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != "" {
			_, _ = w.Write([]byte(body))
		}
	}
}

// URL returns the fake server's base URL.
func (f *FakeUpstream) URL() string {
	return f.server.URL
}

// Client returns an upstream.Client pointed at the fake server.
func (f *FakeUpstream) Client(t *testing.T) *upstream.Client {
	t.Helper()
	return upstream.New(config.UpstreamConfig{
		BaseURL: f.server.URL,
		APIKey:  TestAPIKey,
	}, Logger(t))
}

// Logger returns a development zap logger for tests.
func Logger(t *testing.T) *zap.Logger {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}
