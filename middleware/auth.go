package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/cache"
	"github.com/orbstation/portal/config"
)

// SessionCookie is the cookie the session token travels in.
const SessionCookie = "portal_session"

const claimsKey = "session_claims"

// TokenFromRequest extracts the session token from the session cookie or a
// Bearer header. The cookie wins when both are present.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Session validates the request's session token, if any, and stores the
// claims in the Gin context. Requests without a valid token proceed
// anonymously; RequireAuth and RequireLink gate the protected routes.
func Session(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr := TokenFromRequest(ctx)
		if tokenStr == "" {
			ctx.Next()
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			ctx.Next()
			return
		}

		// Logged-out tokens are removed from the cache before they expire.
		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		exists, err := c.Exists(cacheCtx, "session:"+tokenStr)
		if err != nil || !exists {
			ctx.Next()
			return
		}

		ctx.Set(claimsKey, claims)
		ctx.Next()
	}
}

// RequireAuth rejects requests that carry no valid session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetClaims(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireLink rejects sessions whose link does not carry a concrete ckey.
// An unresolved link is rejected the same way as a missing one here, but is
// never downgraded to "unlinked": the client refreshes the session and
// retries.
func RequireLink() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !claims.Link.IsLinked() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// GetClaims retrieves the session claims from the Gin context, or nil for
// anonymous requests.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(claimsKey); exists {
		return v.(*Claims)
	}
	return nil
}

// GetCkey returns the linked ckey of the authenticated session, or "".
func GetCkey(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil && claims.Link.IsLinked() {
		return claims.Link.Ckey
	}
	return ""
}
