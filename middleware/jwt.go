package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/orbstation/portal/identity"
)

// Claims is the signed session payload. Subject is the Discord user id;
// Link caches the discord→ckey binding for the lifetime of the session.
type Claims struct {
	Name string        `json:"name,omitempty"`
	Link identity.Link `json:"link"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session JWT for the given Discord identity.
func GenerateToken(discordID, name string, link identity.Link, secret string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Name: name,
		Link: link.Normalize(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   discordID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a session JWT and returns the claims.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims.Link = claims.Link.Normalize()
	return claims, nil
}
