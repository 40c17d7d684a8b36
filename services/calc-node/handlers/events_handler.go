package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hetu-project/causality-engine/pkg/eventlog"
	"github.com/hetu-project/causality-engine/services/calc-node/services"
)

// EventsHandler exposes the node's event history
type EventsHandler struct {
	clockService *services.ClockService
	archive      *services.ArchiveService
}

// NewEventsHandler creates a new events handler. The archive may be nil.
func NewEventsHandler(clockService *services.ClockService, archive *services.ArchiveService) *EventsHandler {
	return &EventsHandler{
		clockService: clockService,
		archive:      archive,
	}
}

// eventView is the display form of one annotated event.
type eventView struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Description    string    `json:"description"`
	Clock          string    `json:"clock"`
	Timestamp      time.Time `json:"timestamp"`
	RelationToPrev string    `json:"relation_to_prev,omitempty"`
}

// GetEvents returns the most recent events with pairwise causality
// annotations and a per-type summary.
func (h *EventsHandler) GetEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "limit must be a positive integer",
		})
		return
	}

	log := h.clockService.Log()
	window := log.Tail(limit)
	annotated := eventlog.PairwiseCausality(window)

	views := make([]eventView, len(annotated))
	for i, a := range annotated {
		views[i] = eventView{
			ID:          a.ID,
			Type:        string(a.Type),
			Description: a.Description,
			Clock:       a.Snapshot.Format(),
			Timestamp:   a.Timestamp,
		}
		if !a.First {
			views[i].RelationToPrev = a.RelationToPrev.String()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"process_id": h.clockService.ProcessID(),
			"total":      log.Len(),
			"summary":    log.SummarizeByType(),
			"events":     views,
		},
	})
}

// GetArchivedEvents returns the most recent events from the MySQL archive.
func (h *EventsHandler) GetArchivedEvents(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "event archive is not configured",
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "limit must be a positive integer",
		})
		return
	}

	events, err := h.archive.RecentEvents(h.clockService.ProcessID(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	counts, err := h.archive.CountByType(h.clockService.ProcessID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	annotated := eventlog.PairwiseCausality(events)
	views := make([]eventView, len(annotated))
	for i, a := range annotated {
		views[i] = eventView{
			ID:          a.ID,
			Type:        string(a.Type),
			Description: a.Description,
			Clock:       a.Snapshot.Format(),
			Timestamp:   a.Timestamp,
		}
		if !a.First {
			views[i].RelationToPrev = a.RelationToPrev.String()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"process_id": h.clockService.ProcessID(),
			"summary":    counts,
			"events":     views,
		},
	})
}
