package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"
)

// TokenValidator checks a Google-signed ID token against an audience
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// TriggerAuth guards the internal trigger routes. Callers (the database
// trigger relay and Cloud Scheduler) present a Google OIDC token whose
// audience must match. An empty audience disables the check for local runs.
func TriggerAuth(audience string, validate TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(c *gin.Context) {
		if audience == "" {
			c.Next()
			return
		}

		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		payload, err := validate(c.Request.Context(), token, audience)
		if err != nil {
			log.Warn("rejected trigger token", zap.String("path", c.FullPath()), zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		if email, ok := payload.Claims["email"].(string); ok {
			c.Set("caller", email)
		} else {
			c.Set("caller", payload.Subject)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("missing bearer token")
	}
	return strings.TrimSpace(token), nil
}
