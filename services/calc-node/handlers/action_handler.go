package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/services/calc-node/models"
	"github.com/hetu-project/causality-engine/services/calc-node/services"
)

// ActionHandler exposes operator-triggered clock actions
type ActionHandler struct {
	clockService *services.ClockService
	peerClient   *services.PeerClient
}

// NewActionHandler creates a new action handler
func NewActionHandler(clockService *services.ClockService, peerClient *services.PeerClient) *ActionHandler {
	return &ActionHandler{
		clockService: clockService,
		peerClient:   peerClient,
	}
}

// StampLocal stamps a purely local event on this node.
func (h *ActionHandler) StampLocal(c *gin.Context) {
	var req models.LocalEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format: " + err.Error(),
		})
		return
	}

	ev := h.clockService.StampEvent(eventlog.TypeLocal, req.Description)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"event_id":  ev.ID,
			"type":      ev.Type,
			"clock":     ev.Snapshot,
			"formatted": ev.Snapshot.Format(),
		},
	})
}

// SendSum triggers a sum request to a configured peer.
func (h *ActionHandler) SendSum(c *gin.Context) {
	var req models.SendSumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request format: " + err.Error(),
		})
		return
	}

	exchange, err := h.peerClient.SendSum(c.Request.Context(), req.PeerID, req.RangeStart, req.RangeEnd)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"peer_id":          req.PeerID,
			"sum":              exchange.Response.Sum,
			"request_relation": exchange.Response.RequestRelation,
			"reply_relation":   exchange.ReplyRelation.String(),
			"sent_clock":       exchange.SendEvent.Snapshot.Format(),
			"merged_clock":     exchange.ReplyEvent.Snapshot.Format(),
		},
	})
}
