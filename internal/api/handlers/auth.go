package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/rollpool/internal/auth"
	"github.com/playmatatu/rollpool/internal/config"
)

// MatchAuthMiddleware validates the bearer match token issued at match
// start and sets room and slot in the context.
func MatchAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseMatchToken(cfg.JWTSecret, token)
		if err != nil {
			log.Printf("[AUTH] rejected match token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("room", claims.Room)
		c.Set("slot", claims.Slot)
		c.Next()
	}
}
