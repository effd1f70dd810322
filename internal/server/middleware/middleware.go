// Package middleware holds the handler chain wrapped around every route:
// panic recovery, request ids, CORS, body limits, request logging and
// metrics, plus the gin bearer-token guard for protected routes.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/kbukum/miroapi/internal/errors"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// writeError writes the AppError envelope outside gin.
func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToResponse())
}
