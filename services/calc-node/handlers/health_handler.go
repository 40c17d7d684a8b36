package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hetu-project/causality-engine/services/calc-node/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	nodeID  string
	archive *services.ArchiveService
}

// NewHealthHandler creates a new health handler. The archive may be nil.
func NewHealthHandler(nodeID string, archive *services.ArchiveService) *HealthHandler {
	return &HealthHandler{
		nodeID:  nodeID,
		archive: archive,
	}
}

// Health handles basic health check
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "calc-node",
		"node":    h.nodeID,
	})
}

// Ready handles readiness check
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.archive != nil {
		if err := h.archive.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "archive database connection failed",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": "calc-node",
		"node":    h.nodeID,
	})
}
