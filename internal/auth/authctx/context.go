// Package authctx carries the authenticated identity through a request
// context, from the bearer middleware to the handlers.
package authctx

import (
	"context"
	"errors"
)

type contextKey struct{}

var claimsKey = contextKey{}

// ErrNoClaims is returned when claims are not found in the context.
var ErrNoClaims = errors.New("authctx: no claims in context")

// Set stores authentication claims in the context.
func Set(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Get retrieves typed claims from the context.
func Get[T any](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(claimsKey).(T)
	return claims, ok
}

// GetOrError is Get with ErrNoClaims in place of the boolean.
func GetOrError[T any](ctx context.Context) (T, error) {
	claims, ok := Get[T](ctx)
	if !ok {
		var zero T
		return zero, ErrNoClaims
	}
	return claims, nil
}
