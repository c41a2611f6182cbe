package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
)

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request with its method, path, caller identity,
// status and duration. Each request is tagged with a generated request ID,
// echoed back in the X-Request-Id header.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		identity := auth.IdentityFromContext(r.Context()) // empty if pre-auth
		duration := time.Since(start).Milliseconds()
		if recorder.status >= http.StatusInternalServerError {
			slog.Error("Request failed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"identity", identity,
				"status", recorder.status,
				"duration_ms", duration,
			)
		} else {
			slog.Info("Request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"identity", identity,
				"status", recorder.status,
				"duration_ms", duration,
			)
		}
	})
}
