package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	"go.uber.org/zap"
)

// ServerHandler exposes the game server status snapshot.
type ServerHandler struct {
	agg    *aggregate.Service
	logger *zap.Logger
}

// NewServerHandler creates a ServerHandler.
func NewServerHandler(agg *aggregate.Service, logger *zap.Logger) *ServerHandler {
	return &ServerHandler{agg: agg, logger: logger}
}

// Status handles GET /api/server. The snapshot is cached briefly so
// page loads do not hammer the game server.
func (h *ServerHandler) Status(c *gin.Context) {
	status, err := h.agg.ServerStatus(c.Request.Context())
	if err != nil {
		h.logger.Warn("server status fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal api error"})
		return
	}
	c.Data(http.StatusOK, "application/json", status)
}
