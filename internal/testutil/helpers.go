package testutil

import (
	"context"
	"testing"
)

// THelper ties test components to a testing.T.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps t so components started through it stop when the test ends.
//
//	db := testutil.NewDatabase(&users.User{})
//	testutil.T(t).Setup(db)
func T(t testing.TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context passed to Start, Stop and Reset.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts each component and registers its Stop with t.Cleanup.
func (h *THelper) Setup(components ...TestComponent) {
	h.t.Helper()
	for _, c := range components {
		if err := c.Start(h.ctx); err != nil {
			h.t.Fatalf("failed to start component %s: %v", c.Name(), err)
		}
		comp := c
		h.t.Cleanup(func() {
			if err := comp.Stop(h.ctx); err != nil {
				h.t.Errorf("failed to stop component %s: %v", comp.Name(), err)
			}
		})
	}
}

// Reset resets each component.
func (h *THelper) Reset(components ...TestComponent) {
	h.t.Helper()
	for _, c := range components {
		if err := c.Reset(h.ctx); err != nil {
			h.t.Fatalf("failed to reset component %s: %v", c.Name(), err)
		}
	}
}
