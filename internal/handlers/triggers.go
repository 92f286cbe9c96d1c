package handlers

import (
	"fmt"
	"net/http"

	"groops-notifier/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventCreated schedules the reminder for a newly created event.
// Store failures answer 500 so the trigger host redelivers.
func (h *Handler) EventCreated(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid input: %s", err.Error())})
		return
	}

	outcome, err := h.events.HandleEventCreated(c.Request.Context(), event)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to schedule event reminder", err)
		return
	}

	h.log.Debug("event intake", zap.String("event_id", event.ID), zap.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, gin.H{"eventId": event.ID, "outcome": outcome})
}

// EventDeleted cancels the pending reminder of a deleted event
func (h *Handler) EventDeleted(c *gin.Context) {
	var request models.EventDeleted
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid input: %s", err.Error())})
		return
	}

	cancelled, err := h.events.HandleEventDeleted(c.Request.Context(), request.ID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to cancel event reminder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventId": request.ID, "cancelled": cancelled})
}

// RunJob runs one periodic job on demand
func (h *Handler) RunJob(c *gin.Context) {
	ctx := c.Request.Context()

	switch job := c.Param("job"); job {
	case "dispatch":
		summary, err := h.runners.Dispatcher.Run(ctx)
		if err != nil {
			h.handleError(c, http.StatusInternalServerError, "Dispatch failed", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"job": job, "summary": summary})
	case "retention":
		deleted, err := h.runners.Retention.Run(ctx)
		if err != nil {
			h.handleError(c, http.StatusInternalServerError, "Retention cleanup failed", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"job": job, "deleted": deleted})
	case "attachments":
		summary, err := h.runners.Attachments.Run(ctx)
		if err != nil {
			h.handleError(c, http.StatusInternalServerError, "Attachment cleanup failed", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"job": job, "summary": summary})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown job %q", job)})
	}
}
