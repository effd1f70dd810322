package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/miroapi/internal/auth"
	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/server/endpoint"
	"github.com/kbukum/miroapi/internal/server/middleware"
)

// Operational configures the health and info endpoints.
type Operational struct {
	ServiceName string
	Environment string
	Checker     endpoint.HealthChecker
}

// Mount registers every route on r.
func Mount(r gin.IRouter, svc *auth.Service, ops Operational, log *logger.Logger) {
	h := NewHandler(svc)
	requireAuth := middleware.Bearer[auth.Identity](svc, log.WithComponent("auth"))

	r.GET("/", h.Ping)

	r.GET("/health", endpoint.Health(ops.ServiceName, ops.Checker))
	r.GET("/liveness", endpoint.Liveness(ops.ServiceName))
	r.GET("/readiness", endpoint.Readiness(ops.ServiceName, ops.Checker))
	r.GET("/info", endpoint.Info(ops.ServiceName, ops.Environment))
	r.GET("/version", endpoint.Version())

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/", h.Register)
	authGroup.POST("/token", h.Token)
	authGroup.POST("/refresh", h.Refresh)
	authGroup.POST("/logout", requireAuth, h.Logout)

	userGroup := v1.Group("/users", requireAuth)
	userGroup.GET("/", h.Me)
}
