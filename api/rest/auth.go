package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/config"
	"github.com/orbstation/portal/identity"
	mw "github.com/orbstation/portal/middleware"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

const discordUserURL = "https://discord.com/api/users/@me"

const stateCookie = "oauth_state"

// AuthHandler handles the Discord OAuth flow, session issuance, and the
// one-time-code verification that links a Discord identity to a ckey.
type AuthHandler struct {
	oauth       *oauth2.Config
	ident       *identity.Service
	cache       cache.Cache
	sec         config.SecurityConfig
	publicURL   string
	userInfoURL string
	logger      *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(cfg *config.Config, ident *identity.Service, c cache.Cache, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		oauth: &oauth2.Config{
			ClientID:     cfg.Discord.ClientID,
			ClientSecret: cfg.Discord.ClientSecret,
			RedirectURL:  cfg.Discord.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		},
		ident:       ident,
		cache:       c,
		sec:         cfg.Security,
		publicURL:   cfg.Server.PublicURL,
		userInfoURL: discordUserURL,
		logger:      logger,
	}
}

// Login handles GET /api/auth/login.
// Redirects to Discord with a one-time state bound to a short-lived cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	state := uuid.New().String()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 300, "/", "", h.sec.SecureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// Callback handles GET /api/auth/callback.
// Exchanges the authorization code, resolves the identity's link, and
// issues the session cookie.
func (h *AuthHandler) Callback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.sec.SecureCookies, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.logger.Warn("oauth code exchange failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication failed"})
		return
	}

	user, err := h.fetchUser(ctx, token)
	if err != nil {
		h.logger.Warn("discord identity fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication failed"})
		return
	}

	// Fresh OAuth login: resolve the link now. A transient upstream failure
	// leaves it unresolved so authorization checks never read it as
	// "confirmed absent".
	link := h.ident.RefreshLink(ctx, user.ID, identity.Unresolved(), nil)

	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	if err := h.issueSession(c, user.ID, name, link); err != nil {
		h.logger.Error("session issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	redirect := h.publicURL
	if redirect == "" {
		redirect = "/"
	}
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}

func (h *AuthHandler) fetchUser(ctx context.Context, token *oauth2.Token) (*discordUser, error) {
	client := h.oauth.Client(ctx, token)
	res, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord: unexpected status %d", res.StatusCode)
	}
	user := &discordUser{}
	if err := json.NewDecoder(res.Body).Decode(user); err != nil {
		return nil, err
	}
	return user, nil
}

// issueSession signs a fresh session token, records it in the cache so it
// can be revoked before expiry, and sets the session cookie.
func (h *AuthHandler) issueSession(c *gin.Context, discordID, name string, link identity.Link) error {
	token, err := mw.GenerateToken(discordID, name, link, h.sec.JWTSecret, h.sec.SessionTTL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, "session:"+token, discordID, h.sec.SessionTTL); err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(mw.SessionCookie, token, int(h.sec.SessionTTL.Seconds()), "/", "", h.sec.SecureCookies, true)
	return nil
}

func (h *AuthHandler) dropSession(c *gin.Context, token string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+token)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := mw.TokenFromRequest(c); token != "" {
		h.dropSession(c, token)
	}
	c.SetCookie(mw.SessionCookie, "", -1, "/", "", h.sec.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh.
// Re-issues the session applying the link-refresh policy: a fresh upstream
// lookup, except a transient failure keeps the cached state.
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	link := h.ident.RefreshLink(c.Request.Context(), claims.Subject, claims.Link, nil)

	if token := mw.TokenFromRequest(c); token != "" {
		h.dropSession(c, token)
	}
	if err := h.issueSession(c, claims.Subject, claims.Name, link); err != nil {
		h.logger.Error("session issuance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": claims.Subject, "name": claims.Name, "link": link})
}

// Session handles GET /api/session.
func (h *AuthHandler) Session(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":   claims.Subject,
		"name": claims.Name,
		"link": claims.Link,
	})
}

type verifyBody struct {
	Code string `json:"code" binding:"required,min=1,max=16"`
}

// Verify handles POST /api/verify.
// Exchanges the one-time code; on success the freshly linked ckey is
// written into a new session token unconditionally (the explicit update
// always wins over a lookup). Failures never touch the session.
func (h *AuthHandler) Verify(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body verifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	result := h.ident.ExchangeCode(c.Request.Context(), body.Code, claims.Subject)
	switch result.Status {
	case identity.VerifyOK:
		link := h.ident.RefreshLink(c.Request.Context(), claims.Subject, claims.Link, &result.Ckey)
		if token := mw.TokenFromRequest(c); token != "" {
			h.dropSession(c, token)
		}
		if err := h.issueSession(c, claims.Subject, claims.Name, link); err != nil {
			h.logger.Error("session issuance failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "ckey": result.Ckey, "message": result.Message})
	case identity.VerifyInvalidCode:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "status": result.Status, "message": result.Message})
	case identity.VerifyAlreadyLinked:
		c.JSON(http.StatusConflict, gin.H{"success": false, "status": result.Status, "message": result.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "status": result.Status, "message": result.Message})
	}
}
