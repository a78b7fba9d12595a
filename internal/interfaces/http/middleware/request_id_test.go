package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID when none is supplied", func(t *testing.T) {
		engine := gin.New()
		engine.Use(RequestID())
		engine.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString("request_id"))
		})

		req := httptest.NewRequest("GET", "/ping", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		_, err := uuid.Parse(w.Body.String())
		assert.NoError(t, err)
		assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates a gateway-assigned ID", func(t *testing.T) {
		engine := gin.New()
		engine.Use(RequestID())
		engine.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString("request_id"))
		})

		req := httptest.NewRequest("GET", "/ping", nil)
		req.Header.Set("X-Request-ID", "gateway-assigned-id")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "gateway-assigned-id", w.Body.String())
		assert.Equal(t, "gateway-assigned-id", w.Header().Get("X-Request-ID"))
	})
}
