package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hetu-project/causality-engine/services/calc-node/services"
)

// ClockHandler exposes the node's clock state
type ClockHandler struct {
	clockService *services.ClockService
}

// NewClockHandler creates a new clock handler
func NewClockHandler(clockService *services.ClockService) *ClockHandler {
	return &ClockHandler{
		clockService: clockService,
	}
}

// GetClock returns the current clock snapshot.
func (h *ClockHandler) GetClock(c *gin.Context) {
	snap := h.clockService.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"process_id": h.clockService.ProcessID(),
			"clock":      snap,
			"formatted":  snap.Format(),
		},
	})
}
