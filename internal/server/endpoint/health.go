// Package endpoint provides the operational handlers: health, liveness,
// readiness, info and version.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/miroapi/internal/component"
)

// HealthChecker returns the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// Health reports overall status and per-component health. Any unhealthy
// component makes the response 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := component.StatusHealthy
		var components []component.Health
		if checker != nil {
			components = checker(c.Request.Context())
			status = overall(components)
		}

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}

// Liveness confirms the process serves HTTP. It never checks dependencies.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": serviceName})
	}
}

// Readiness is 200 only when every component is healthy or degraded.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker != nil && overall(checker(c.Request.Context())) == component.StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}

func overall(components []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, ch := range components {
		switch ch.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}
