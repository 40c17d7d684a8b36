package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hetu-project/causality-engine/pkg/protocol"
	"github.com/hetu-project/causality-engine/services/calc-node/services"
)

// SumHandler handles inbound sum requests from peer nodes
type SumHandler struct {
	sumService *services.SumService
}

// NewSumHandler creates a new sum handler
func NewSumHandler(sumService *services.SumService) *SumHandler {
	return &SumHandler{
		sumService: sumService,
	}
}

// HandleSum processes a peer's sum request and replies with the signed
// result and this node's latest clock snapshot.
func (h *SumHandler) HandleSum(c *gin.Context) {
	var req protocol.SumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format: " + err.Error(),
		})
		return
	}

	// Validate required fields
	if req.SenderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "sender_id is required",
		})
		return
	}

	if req.Clock == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "clock is required",
		})
		return
	}

	resp, err := h.sumService.HandleSumRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
