package middleware

import (
	"net/http"
	"strings"

	"github.com/forkcast/forkcast-api/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// VerifyTokenMiddleware verifies the JWT token provided in the
// Authorization header (or, for WebSocket upgrades, the "token" query
// parameter) and stores the client ID in the gin context. The client ID
// keys the per-client search session.
func VerifyTokenMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		tokenString = strings.TrimSpace(tokenString)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.EnvVars.JwtSecretKey), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Ensure this is an access token, not a refresh token
		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != "access" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token type"})
			c.Abort()
			return
		}

		clientID, ok := claims["client_id"].(string)
		if !ok || clientID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid client_id in token"})
			c.Abort()
			return
		}

		c.Set("client_id", clientID)
		c.Next()
	}
}

// ClientIDFromContext returns the client ID stored by VerifyTokenMiddleware.
func ClientIDFromContext(c *gin.Context) (string, bool) {
	clientID, ok := c.Get("client_id")
	if !ok {
		return "", false
	}
	id, ok := clientID.(string)
	return id, ok && id != ""
}
