package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/observability"
)

var probePaths = map[string]bool{
	"/health":    true,
	"/liveness":  true,
	"/readiness": true,
}

// RequestLogger logs every non-probe request with its status, latency,
// size and request id. 5xx log at error, 4xx at warn, the rest at info.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			latency := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldDuration, latency.Milliseconds(),
				"bytes", sw.bytes,
				"client", r.RemoteAddr,
			)
			l := log.WithContext(r.Context())
			switch {
			case sw.status >= 500:
				l.Error("request completed", fields)
			case sw.status >= 400:
				l.Warn("request completed", fields)
			default:
				l.Info("request completed", fields)
			}
		})
	}
}

// Metrics records request counts, latency and in-flight requests.
func Metrics(m *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			m.RecordRequestStart(r.Context())
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			m.RecordRequestEnd(r.Context(), r.Method, r.URL.Path, sw.status, time.Since(start))
		})
	}
}
