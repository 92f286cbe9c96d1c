package handlers

import (
	"context"
	"net/http"

	"groops-notifier/internal/jobs"
	"groops-notifier/internal/models"
	"groops-notifier/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventTrigger reacts to calendar event lifecycle changes
type EventTrigger interface {
	HandleEventCreated(ctx context.Context, event models.Event) (services.IntakeOutcome, error)
	HandleEventDeleted(ctx context.Context, eventID string) (int64, error)
}

// Handler serves the trigger and job endpoints
type Handler struct {
	events  EventTrigger
	runners jobs.Runners
	log     *zap.Logger
}

func NewHandler(events EventTrigger, runners jobs.Runners, log *zap.Logger) *Handler {
	return &Handler{events: events, runners: runners, log: log.Named("http")}
}

// handleError provides a consistent way to handle and log errors
func (h *Handler) handleError(c *gin.Context, status int, message string, err error) {
	h.log.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(status, gin.H{"error": message})
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Groops notifier")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
