package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, h *HealthHandler) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	ok := func(context.Context) error { return nil }
	code, body := serveHealth(t, NewHealthHandler(
		HealthCheck{Name: "database", Check: ok},
		HealthCheck{Name: "session_store", Check: ok},
	))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "healthy", body["database"])
	assert.Equal(t, "healthy", body["session_store"])
	assert.Equal(t, "airtable-connect", body["service"])
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	code, body := serveHealth(t, NewHealthHandler(
		HealthCheck{Name: "database", Check: func(context.Context) error { return errors.New("connection refused") }},
		HealthCheck{Name: "session_store", Check: func(context.Context) error { return nil }},
	))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "unhealthy", body["database"])
	assert.Equal(t, "healthy", body["session_store"])
	assert.NotContains(t, body, "error")
}
