package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestHTTPLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logBuffer bytes.Buffer
	log.Logger = zerolog.New(&logBuffer).With().Timestamp().Logger()

	t.Run("logs route template and status", func(t *testing.T) {
		logBuffer.Reset()
		router := gin.New()
		router.Use(HTTPLogger())
		router.GET("/v2/models/:model/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"model_stats": []string{}})
		})

		req := httptest.NewRequest(http.MethodGet, "/v2/models/retinanet_rn50fpn/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, "[access]")
		assert.Contains(t, logOutput, "GET")
		assert.Contains(t, logOutput, "/v2/models/:model/stats")
		assert.Contains(t, logOutput, "200")
		assert.Contains(t, logOutput, "192.0.2.1")
	})

	t.Run("falls back to raw path for unknown routes", func(t *testing.T) {
		logBuffer.Reset()
		router := gin.New()
		router.Use(HTTPLogger())

		req := httptest.NewRequest(http.MethodGet, "/missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, logBuffer.String(), "/missing")
		assert.Contains(t, logBuffer.String(), "404")
	})
}

func TestHTTPRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log.Logger = zerolog.New(&bytes.Buffer{})

	router := gin.New()
	router.Use(HTTPRecovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"boom"}`, w.Body.String())
}
