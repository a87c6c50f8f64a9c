package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	mw "github.com/orbstation/portal/middleware"
	"github.com/orbstation/portal/upstream"
	"go.uber.org/zap"
)

// PlayerHandler handles player profile and per-player history endpoints.
type PlayerHandler struct {
	agg    *aggregate.Service
	api    *upstream.Client
	logger *zap.Logger
}

// NewPlayerHandler creates a PlayerHandler.
func NewPlayerHandler(agg *aggregate.Service, api *upstream.Client, logger *zap.Logger) *PlayerHandler {
	return &PlayerHandler{agg: agg, api: api, logger: logger}
}

// Profile handles GET /api/players/:ckey.
// Serves the aggregated public profile; 404 only when the upstream reports
// the player itself unknown.
func (h *PlayerHandler) Profile(c *gin.Context) {
	ckey := c.Param("ckey")
	if !validCkey(ckey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ckey param"})
		return
	}

	profile, err := h.agg.Player(c.Request.Context(), ckey)
	if errors.Is(err, upstream.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// FavoriteCharacter handles GET /api/player/favorite_character?ckey=<ckey>.
func (h *PlayerHandler) FavoriteCharacter(c *gin.Context) {
	ckey := c.Query("ckey")
	if !validCkey(ckey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ckey param"})
		return
	}

	var fav json.RawMessage
	if err := h.api.Get(c.Request.Context(), "/v2/player/favorite_character", url.Values{"ckey": {ckey}}, &fav); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/json", fav)
}

// Autocomplete handles GET /api/autocomplete/ckey?ckey=<partial>.
func (h *PlayerHandler) Autocomplete(c *gin.Context) {
	ckey := c.Query("ckey")
	if ckey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing ckey param"})
		return
	}

	var matches json.RawMessage
	if err := h.api.Get(c.Request.Context(), "/v2/autocomplete/ckey", url.Values{"ckey": {ckey}}, &matches); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/json", matches)
}

// Bans handles GET /api/player/bans: the session player's own ban history.
func (h *PlayerHandler) Bans(c *gin.Context) {
	query := url.Values{"ckey": {mw.GetCkey(c)}}
	var bans json.RawMessage
	if err := h.api.Get(c.Request.Context(), "/v2/player/ban", query, &bans); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/json", bans)
}

// Rounds handles GET /api/player/rounds: rounds the session player took
// part in, paginated.
func (h *PlayerHandler) Rounds(c *gin.Context) {
	fetchSize, page, ok := parsePagination(c, 40)
	if !ok {
		return
	}
	h.playerFeed(c, "/v2/player/rounds", fetchSize, page)
}

// Tickets handles GET /api/player/tickets: the session player's admin
// message history, paginated.
func (h *PlayerHandler) Tickets(c *gin.Context) {
	fetchSize, page, ok := parsePagination(c, 20)
	if !ok {
		return
	}
	h.playerFeed(c, "/v2/player/tickets", fetchSize, page)
}

func (h *PlayerHandler) playerFeed(c *gin.Context, path string, fetchSize, page int) {
	query := url.Values{
		"ckey":       {mw.GetCkey(c)},
		"fetch_size": {strconv.Itoa(fetchSize)},
		"page":       {strconv.Itoa(page)},
	}
	var feed json.RawMessage
	if err := h.api.Get(c.Request.Context(), path, query, &feed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/json", feed)
}
