package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/api/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminReq(p *portal, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	p.router.ServeHTTP(w, req)
	return w
}

func TestAdminAuth_MissingKey(t *testing.T) {
	p := newPortal(t)
	w := adminReq(p, http.MethodGet, "/api/admin/cache/stats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth_WrongKey(t *testing.T) {
	p := newPortal(t)
	w := adminReq(p, http.MethodGet, "/api/admin/cache/stats", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuth_DisabledWithoutConfiguredKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", rest.AdminAuth(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Admin-Key", "anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminCacheStats(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	require.NoError(t, p.cache.Set(ctx, "resp:player:steve123", "{}", time.Hour))
	require.NoError(t, p.cache.Set(ctx, "resp:player:alice", "{}", time.Hour))
	require.NoError(t, p.cache.Set(ctx, "resp:overview", "[]", time.Hour))
	require.NoError(t, p.cache.Set(ctx, "session:tok", "42", time.Hour))

	w := adminReq(p, http.MethodGet, "/api/admin/cache/stats", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 3, body["entries"])
	families := body["families"].(map[string]any)
	assert.EqualValues(t, 2, families["player"])
	assert.EqualValues(t, 1, families["overview"])
}

func TestAdminCachePurge_LeavesSessions(t *testing.T) {
	p := newPortal(t)
	ctx := context.Background()
	require.NoError(t, p.cache.Set(ctx, "resp:player:steve123", "{}", time.Hour))
	require.NoError(t, p.cache.Set(ctx, "session:tok", "42", time.Hour))

	w := adminReq(p, http.MethodPost, "/api/admin/cache/purge", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["purged"])

	exists, err := p.cache.Exists(ctx, "resp:player:steve123")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = p.cache.Exists(ctx, "session:tok")
	require.NoError(t, err)
	assert.True(t, exists)
}
