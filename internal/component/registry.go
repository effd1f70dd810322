package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/miroapi/internal/logger"
)

const defaultStopTimeout = 10 * time.Second

type componentEntry struct {
	component Component
	started   bool
}

// Registry manages component lifecycle with deterministic ordering.
// Components are started in registration order and stopped in reverse order.
type Registry struct {
	entries []*componentEntry
	lookup  map[string]*componentEntry
	log     *logger.Logger
	mu      sync.RWMutex
}

// NewRegistry creates a new component registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		lookup: make(map[string]*componentEntry),
		log:    log.WithComponent("registry"),
	}
}

// Register adds a component. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	entry := &componentEntry{component: c}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry
	return nil
}

// StartAll starts all components in registration order. On failure the
// components already started are left running; call StopAll to release them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		name := entry.component.Name()
		if err := entry.component.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields("target", name, "error", err.Error()))
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		entry.started = true
		r.log.Debug("component started", logger.Fields("target", name))
	}

	r.log.Info("all components started", logger.Fields("count", len(r.entries)))
	return nil
}

// StopAll stops every started component in reverse registration order.
// The registry lock is not held while components stop, so health checks
// served by a draining HTTP server do not block shutdown.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	var started []*componentEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].started {
			started = append(started, r.entries[i])
			r.entries[i].started = false
		}
	}
	r.mu.Unlock()

	var errs []error
	for _, entry := range started {
		name := entry.component.Name()
		stopCtx, cancel := context.WithTimeout(ctx, defaultStopTimeout)
		if err := entry.component.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("component stop failed", logger.Fields("target", name, "error", err.Error()))
		} else {
			r.log.Info("component stopped", logger.Fields("target", name))
		}
		cancel()
	}

	return errors.Join(errs...)
}

// HealthAll returns health status for all registered components.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Health, 0, len(r.entries))
	for _, entry := range r.entries {
		results = append(results, entry.component.Health(ctx))
	}
	return results
}

// Get returns a registered component by name, or nil if not found.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.lookup[name]; exists {
		return entry.component
	}
	return nil
}

// All returns all registered components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Component, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.component)
	}
	return result
}
