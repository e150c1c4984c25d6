package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// LoggerConfig holds access log configuration
type LoggerConfig struct {
	Logger       *slog.Logger
	ExcludePaths []string
}

// DefaultLoggerConfig skips the health and metrics endpoints
func DefaultLoggerConfig(logger *slog.Logger) *LoggerConfig {
	return &LoggerConfig{
		Logger:       logger,
		ExcludePaths: []string{"/health", "/metrics"},
	}
}

// Logger writes one structured line per request. 5xx responses log at error
// level, 4xx at warn.
func Logger(config *LoggerConfig) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(config.ExcludePaths))
	for _, path := range config.ExcludePaths {
		skip[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			latency := time.Since(start)

			attrs := []any{
				"status", rec.status,
				"method", r.Method,
				"path", r.URL.Path,
				"latency_ms", latency.Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			if id := GetRequestID(r.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}

			switch {
			case rec.status >= 500:
				config.Logger.Error("HTTP request", attrs...)
			case rec.status >= 400:
				config.Logger.Warn("HTTP request", attrs...)
			default:
				config.Logger.Info("HTTP request", attrs...)
			}
		})
	}
}
