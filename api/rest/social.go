package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mw "github.com/orbstation/portal/middleware"
	"github.com/orbstation/portal/social"
	"go.uber.org/zap"
)

// SocialHandler handles the friendship REST endpoints. All routes are
// gated by RequireLink: the actor ckey always comes from the session.
type SocialHandler struct {
	svc    *social.Service
	logger *zap.Logger
}

// NewSocialHandler creates a SocialHandler.
func NewSocialHandler(svc *social.Service, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{svc: svc, logger: logger}
}

// List handles GET /api/player/friends.
func (h *SocialHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), mw.GetCkey(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Check handles GET /api/player/friends/check?friend_ckey=<ckey>.
// Resolves the relationship between the session's ckey and another player,
// in either direction, so the profile page can render the right action.
func (h *SocialHandler) Check(c *gin.Context) {
	friend := c.Query("friend_ckey")
	if len(friend) < 1 || len(friend) > 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend_ckey param"})
		return
	}

	ckey := mw.GetCkey(c)
	f, err := h.svc.Check(c.Request.Context(), ckey, friend)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	other := friend
	if f != nil {
		other = social.OtherParty(*f, ckey)
	}
	c.JSON(http.StatusOK, gin.H{
		"friendship": f,
		"relation":   social.RelationTo(f, ckey),
		"other":      other,
	})
}

type addFriendBody struct {
	Friend string `json:"friend" binding:"required,min=1,max=32"`
}

// Add handles POST /api/player/friends.
func (h *SocialHandler) Add(c *gin.Context) {
	var body addFriendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend"})
		return
	}
	writeMutation(c, h.svc.Add(c.Request.Context(), mw.GetCkey(c), body.Friend))
}

// Accept handles POST /api/player/friends/:id/accept.
func (h *SocialHandler) Accept(c *gin.Context) {
	id, ok := friendshipID(c)
	if !ok {
		return
	}
	writeMutation(c, h.svc.Accept(c.Request.Context(), mw.GetCkey(c), id))
}

// Decline handles POST /api/player/friends/:id/decline.
func (h *SocialHandler) Decline(c *gin.Context) {
	id, ok := friendshipID(c)
	if !ok {
		return
	}
	writeMutation(c, h.svc.Decline(c.Request.Context(), mw.GetCkey(c), id))
}

// Remove handles DELETE /api/player/friends/:id.
func (h *SocialHandler) Remove(c *gin.Context) {
	id, ok := friendshipID(c)
	if !ok {
		return
	}
	writeMutation(c, h.svc.Remove(c.Request.Context(), mw.GetCkey(c), id))
}

func friendshipID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// writeMutation maps a mutation outcome onto the wire. A record that no
// longer exists is a 200 with a null friendship, not an error, so retried
// declines and removes stay idempotent.
func writeMutation(c *gin.Context, res social.MutationResult) {
	switch res.Status {
	case social.MutationOK:
		c.JSON(http.StatusOK, gin.H{"friendship": res.Friendship})
	case social.MutationNotFound:
		c.JSON(http.StatusOK, gin.H{"friendship": nil})
	case social.MutationConflict:
		c.JSON(http.StatusConflict, gin.H{"friendship": nil, "error": "relationship already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
