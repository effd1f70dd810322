// Package testutil provides in-process stand-ins for the database and the
// token cache so store, service and API tests run without external servers.
package testutil

import (
	"context"

	"github.com/kbukum/miroapi/internal/component"
)

// TestComponent extends component.Component with a reset between test cases.
type TestComponent interface {
	component.Component

	// Reset restores the component to its initial empty state.
	Reset(ctx context.Context) error
}
