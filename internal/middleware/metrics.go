package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckshelf/internal/metrics"
)

// unmatchedRoute labels requests no route matched, keeping label cardinality
// bounded
const unmatchedRoute = "unmatched"

// Metrics records request count, latency and in-flight requests. Requests are
// labelled with the mux route template, so it must run inside the router
// (mux.Router.Use).
func Metrics(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			m.RecordHTTPRequest(r.Method, routeTemplate(r), rec.status, time.Since(start))
		})
	}
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	if tpl, err := route.GetPathTemplate(); err == nil {
		return tpl
	}
	return unmatchedRoute
}
