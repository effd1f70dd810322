// Package component defines the lifecycle contract shared by the database,
// cache and HTTP server, and a registry that starts and stops them in order.
package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed piece of infrastructure.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a one-line summary printed at startup.
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable is optionally implemented by components that appear in the
// startup summary.
type Describable interface {
	Describe() Description
}
