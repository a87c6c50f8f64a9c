package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/scheduler"
	"go.uber.org/zap"
)

// AdminAuth gates the admin endpoints behind a shared key supplied in
// the X-Admin-Key header. An empty configured key disables the group.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin api disabled"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// AdminHandler exposes operational endpoints for the response cache
// and the background scheduler.
type AdminHandler struct {
	cache  cache.Cache
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(c cache.Cache, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{cache: c, sched: sched, logger: logger}
}

// CacheStats handles GET /api/admin/cache. It reports the live
// response-cache entries, grouped by key family.
func (h *AdminHandler) CacheStats(c *gin.Context) {
	keys, err := h.cache.Keys(c.Request.Context(), "resp:")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache unavailable"})
		return
	}

	families := make(map[string]int)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, "resp:")
		family := rest
		if i := strings.IndexByte(rest, ':'); i >= 0 {
			family = rest[:i]
		}
		families[family]++
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":  len(keys),
		"families": families,
		"tickers":  h.sched.ListTickers(),
	})
}

// CachePurge handles POST /api/admin/cache/purge. It drops every
// cached upstream response; sessions are left untouched.
func (h *AdminHandler) CachePurge(c *gin.Context) {
	keys, err := h.cache.Keys(c.Request.Context(), "resp:")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache unavailable"})
		return
	}
	if len(keys) > 0 {
		if err := h.cache.Del(c.Request.Context(), keys...); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cache purge failed"})
			return
		}
	}
	h.logger.Info("response cache purged", zap.Int("entries", len(keys)))
	c.JSON(http.StatusOK, gin.H{"purged": len(keys)})
}
