package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"google.golang.org/api/idtoken"
)

func newRouter(audience string, validate TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/internal/ping", TriggerAuth(audience, validate, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("caller"))
	})
	return router
}

func request(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/internal/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTriggerAuth_DisabledWithoutAudience(t *testing.T) {
	called := false
	router := newRouter("", func(context.Context, string, string) (*idtoken.Payload, error) {
		called = true
		return nil, errors.New("should not be called")
	})

	w := request(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
}

func TestTriggerAuth_RequiresBearer(t *testing.T) {
	router := newRouter("https://notifier.example", func(context.Context, string, string) (*idtoken.Payload, error) {
		return &idtoken.Payload{}, nil
	})

	assert.Equal(t, http.StatusUnauthorized, request(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, request(router, "Bearer ").Code)
}

func TestTriggerAuth_ValidatesAudience(t *testing.T) {
	var gotToken, gotAudience string
	router := newRouter("https://notifier.example", func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		gotToken, gotAudience = token, audience
		if token != "good" {
			return nil, errors.New("bad signature")
		}
		return &idtoken.Payload{Subject: "123", Claims: map[string]interface{}{"email": "relay@project.iam.gserviceaccount.com"}}, nil
	})

	w := request(router, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "relay@project.iam.gserviceaccount.com", w.Body.String())
	assert.Equal(t, "good", gotToken)
	assert.Equal(t, "https://notifier.example", gotAudience)

	assert.Equal(t, http.StatusUnauthorized, request(router, "Bearer forged").Code)
}
