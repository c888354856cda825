package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// TokenSource pulls a token out of a request, or reports that it carries none.
// Sources never fail; validation happens later.
type TokenSource func(c *gin.Context) (string, bool)

// accessTokenSources is the fixed lookup order for access tokens: the cookie
// wins over the Authorization header, and only the first source that yields a
// token is ever consulted.
var accessTokenSources = []TokenSource{
	CookieToken(accessCookieName),
	BearerToken,
}

// CookieToken returns the raw cookie value, undecoded. A present cookie with a
// malformed value still counts as the token.
func CookieToken(name string) TokenSource {
	return func(c *gin.Context) (string, bool) {
		cookie, err := c.Request.Cookie(name)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			return "", false
		}
		return cookie.Value, true
	}
}

const bearerPrefix = "Bearer "

// BearerToken matches the scheme case-insensitively.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

func extractToken(c *gin.Context, sources []TokenSource) (string, bool) {
	for _, source := range sources {
		if token, ok := source(c); ok {
			return token, true
		}
	}
	return "", false
}
