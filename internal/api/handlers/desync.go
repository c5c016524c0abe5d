package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/rollpool/internal/models"
)

// DesyncStore persists desync reports.
type DesyncStore interface {
	Insert(ctx context.Context, r *models.DesyncReport) error
	ListByRoom(ctx context.Context, room string) ([]models.DesyncReport, error)
}

type desyncRequest struct {
	Frame          *int   `json:"frame"`
	LocalChecksum  string `json:"local_checksum"`
	RemoteChecksum string `json:"remote_checksum"`
}

// ReportDesync stores a checksum mismatch reported by a peer. Room and slot
// come from the match token, not the body.
func ReportDesync(store DesyncStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "desync store unavailable"})
			return
		}

		var req desyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Frame == nil || *req.Frame < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "frame must be a non-negative integer"})
			return
		}
		local, err := normalizeChecksum(req.LocalChecksum)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "local_checksum: " + err.Error()})
			return
		}
		remote, err := normalizeChecksum(req.RemoteChecksum)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "remote_checksum: " + err.Error()})
			return
		}

		report := models.DesyncReport{
			Room:           c.GetString("room"),
			Slot:           c.GetInt("slot"),
			Frame:          *req.Frame,
			LocalChecksum:  local,
			RemoteChecksum: remote,
		}
		if err := store.Insert(c.Request.Context(), &report); err != nil {
			log.Printf("[DB] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		log.Printf("[RELAY] desync reported: room=%s slot=%d frame=%d local=%s remote=%s",
			report.Room, report.Slot, report.Frame, local, remote)
		c.JSON(http.StatusCreated, report)
	}
}

// ListDesyncs returns the reports filed for a room. It runs behind
// MatchAuthMiddleware and only serves the room named in the token.
func ListDesyncs(store DesyncStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "desync store unavailable"})
			return
		}

		// Match tokens only grant access to their own room.
		if c.GetString("room") != c.Param("room") {
			c.JSON(http.StatusForbidden, gin.H{"error": "token is not valid for this room"})
			return
		}

		reports, err := store.ListByRoom(c.Request.Context(), c.Param("room"))
		if err != nil {
			log.Printf("[DB] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": c.Param("room"), "reports": reports})
	}
}
