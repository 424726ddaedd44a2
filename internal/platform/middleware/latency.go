package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LatencyRecorder receives one observation per request.
type LatencyRecorder interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// LatencyMiddleware records request latency labelled by the matched chi route
// pattern, so path parameters do not explode label cardinality.
func LatencyMiddleware(rec LatencyRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec.ObserveRequest(r.Method, route, status, time.Since(start))
		})
	}
}
