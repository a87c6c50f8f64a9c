package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	"github.com/orbstation/portal/api/sse"
	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStream(t *testing.T) (*gin.Engine, *testutil.FakeUpstream, cache.PubSub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := testutil.NewFakeUpstream(t)
	c, ps := testutil.SetupTestCache(t)
	agg := aggregate.NewService(fake.Client(t), c, time.Hour, 30*time.Second, testutil.Logger(t))

	r := gin.New()
	r.GET("/sse", sse.NewHandler(ps, agg, testutil.Logger(t)).ServeSSE)
	return r, fake, ps
}

func TestServeSSE_InitialSnapshotAndUpdates(t *testing.T) {
	r, fake, ps := newStream(t)
	fake.Respond("/v2/server", http.StatusOK, `{"players": 42}`)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sse", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	// Give the handler time to subscribe and emit the initial snapshot.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, ps.Publish(context.Background(), aggregate.StatusChannel, `{"players": 43}`))
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not stop on client disconnect")
	}

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, `event: status`)
	assert.Contains(t, body, `{"players": 42}`)
	assert.Contains(t, body, `{"players": 43}`)
}

func TestServeSSE_UpstreamDownStillConnects(t *testing.T) {
	r, fake, _ := newStream(t)
	fake.Respond("/v2/server", http.StatusBadGateway, "")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sse", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not stop on client disconnect")
	}

	assert.Contains(t, w.Body.String(), "event: connected")
}
