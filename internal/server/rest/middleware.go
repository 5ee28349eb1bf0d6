package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/waitlist/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestIDFields exposes the chi request ID to loggers, so every record
// written while serving a request can be correlated.
func RequestIDFields(ctx context.Context) []any {
	if id := middleware.GetReqID(ctx); id != "" {
		return []any{"request_id", id}
	}
	return nil
}

// requestLogger writes one record per request once the handler returns.
func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				l.Info(r.Context(), "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"remote", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
