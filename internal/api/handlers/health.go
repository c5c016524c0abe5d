package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// RoomStats reports relay occupancy for the health check.
type RoomStats interface {
	Stats() (rooms, peers int)
}

// HealthCheck returns server health status
func HealthCheck(stats RoomStats) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"status":  "ok",
			"service": "rollpool-relay",
			"version": version,
			"uptime":  time.Since(startTime).String(),
		}
		if stats != nil {
			rooms, peers := stats.Stats()
			resp["rooms"] = rooms
			resp["peers"] = peers
		}
		c.JSON(http.StatusOK, resp)
	}
}
