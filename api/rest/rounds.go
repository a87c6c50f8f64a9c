package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	"github.com/orbstation/portal/upstream"
	"go.uber.org/zap"
)

// RoundsHandler handles round listing and round detail endpoints.
type RoundsHandler struct {
	agg    *aggregate.Service
	logger *zap.Logger
}

// NewRoundsHandler creates a RoundsHandler.
func NewRoundsHandler(agg *aggregate.Service, logger *zap.Logger) *RoundsHandler {
	return &RoundsHandler{agg: agg, logger: logger}
}

// List handles GET /api/rounds?fetch_size=&page=[&round_id=].
// fetch_size is capped at 80; the upstream body passes through unmodified.
func (h *RoundsHandler) List(c *gin.Context) {
	fetchSize, page, ok := parsePagination(c, 80)
	if !ok {
		return
	}

	rounds, err := h.agg.Rounds(c.Request.Context(), fetchSize, page, c.Query("round_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal api error"})
		return
	}
	c.Data(http.StatusOK, "application/json", rounds)
}

// Detail handles GET /api/rounds/:round_id.
func (h *RoundsHandler) Detail(c *gin.Context) {
	roundID, err := strconv.ParseInt(c.Param("round_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round_id"})
		return
	}

	round, err := h.agg.Round(c.Request.Context(), roundID)
	if errors.Is(err, upstream.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "round not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/json", round)
}
