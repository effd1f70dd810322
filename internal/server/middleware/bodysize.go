package middleware

import "net/http"

// BodySizeLimit caps request bodies at maxBytes. Reads past the cap fail
// and the handler's bind error surfaces as a 400.
func BodySizeLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
