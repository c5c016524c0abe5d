package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/rollpool/internal/api/handlers"
	"github.com/playmatatu/rollpool/internal/config"
	"github.com/playmatatu/rollpool/internal/middleware"
	"github.com/playmatatu/rollpool/internal/ws"
)

// SetupRoutes configures all relay routes. store may be nil when no
// database is configured; the desync endpoints then answer 503.
func SetupRoutes(router *gin.Engine, hub *ws.Hub, store handlers.DesyncStore, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	// Peers connect here: ws://host:port/pool?next=2
	router.GET("/pool", middleware.WebSocketCORSCheck(cfg), hub.HandleWebSocket)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(hub))

		desync := v1.Group("/desync")
		{
			desync.Use(handlers.MatchAuthMiddleware(cfg))
			desync.POST("", handlers.ReportDesync(store))
			desync.GET("/:room", handlers.ListDesyncs(store))
		}
	}
}
