package logging

import "net/http"

// RequestIDHeader is echoed back so callers can correlate proxy logs.
const RequestIDHeader = "X-Request-Id"

// Middleware assigns each request an ID, stores it in the context, and
// echoes it in the response headers. Incoming IDs are reused.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
