package handlers

import (
	"time"

	"groops-notifier/internal/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the HTTP settings from config.Config
type RouterConfig struct {
	AllowedOrigins  []string
	TriggerAudience string
	// Validator defaults to Google's ID token validation
	Validator auth.TokenValidator
}

// NewRouter wires every route of the notifier
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Basic routes
	router.GET("/", HomeHandler)
	router.GET("/health", HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Internal routes (OIDC auth required)
	internal := router.Group("/internal")
	internal.Use(auth.TriggerAuth(cfg.TriggerAudience, cfg.Validator, h.log))
	{
		internal.POST("/triggers/events/created", h.EventCreated)
		internal.POST("/triggers/events/deleted", h.EventDeleted)
		internal.POST("/jobs/:job/run", h.RunJob)
	}

	return router
}
