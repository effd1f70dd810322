package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/miroapi/internal/logger"
)

// HeaderRequestID is the request id header read and echoed.
const HeaderRequestID = "X-Request-Id"

// RequestID reuses the caller's X-Request-Id or generates one, echoes it on
// the response and stores it in the request context for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
