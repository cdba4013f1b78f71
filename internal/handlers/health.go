package handlers

import (
	"context"
	"net/http"
	"time"

	"airtable-connect/internal/build"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthCheck перевірка однієї залежності сервісу
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler містить handlers для health check
type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthHandler створює новий HealthHandler
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// Health повертає статус здоров'я сервісу та його залежностей
// @Summary Health Check
// @Description Повертає статус здоров'я сервісу, бази даних і сховища сесій
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	response := gin.H{
		"service": build.ServiceName,
		"version": build.Version,
	}

	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			logrus.WithError(err).WithField("dependency", check.Name).Warn("Health check failed")
			response[check.Name] = "unhealthy"
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		response[check.Name] = "healthy"
	}

	response["status"] = status
	c.JSON(code, response)
}
