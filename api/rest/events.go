package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	"go.uber.org/zap"
)

// EventsHandler serves the station event feeds (crimes, overview).
type EventsHandler struct {
	agg    *aggregate.Service
	logger *zap.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(agg *aggregate.Service, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{agg: agg, logger: logger}
}

// Crimes handles GET /api/events/crimes?fetch_size=&page=.
func (h *EventsHandler) Crimes(c *gin.Context) {
	fetchSize, page, ok := parsePagination(c, 40)
	if !ok {
		return
	}

	crimes, err := h.agg.Crimes(c.Request.Context(), fetchSize, page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal api error"})
		return
	}
	c.Data(http.StatusOK, "application/json", crimes)
}

// Overview handles GET /api/events/overview.
func (h *EventsHandler) Overview(c *gin.Context) {
	overview, err := h.agg.Overview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal api error"})
		return
	}
	c.Data(http.StatusOK, "application/json", overview)
}
