// Package middleware holds the auth layers in front of the operator API.
// Hosts carry bearer tokens issued at login; the chat gateway identifies
// itself with a shared key header on every call, webhook included.
package middleware

import (
	"net/http"
	"strings"

	"github.com/hildolfr/dazza-sub007/internal/services"

	"github.com/gin-gonic/gin"
)

// BotKeyHeader is where the chat gateway puts its shared key.
const BotKeyHeader = "X-Bot-API-Key"

// JWTAuth guards host-only routes. On success the host ID lands on the
// context under "host_id".
func JWTAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		hostID, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("host_id", hostID)
		c.Next()
	}
}

// BotAuth guards routes only the gateway should reach.
func BotAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(BotKeyHeader)
		if key == "" || key != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid bot API key"})
			return
		}
		c.Next()
	}
}

// FlexAuth takes either a gateway key or a host token. Heist status,
// votes, and the leaderboards sit behind this one since the bot and the
// dashboard both read them.
func FlexAuth(authService *services.AuthService, botAPIKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(BotKeyHeader); key != "" && key == botAPIKey {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		hostID, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("host_id", hostID)
		c.Next()
	}
}

// bearerToken pulls the token out of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
