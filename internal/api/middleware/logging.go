// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/good-yellow-bee/synergy/internal/logging"
)

const loggerKey contextKey = "logger"

// responseWriter captures the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// RequestLogger tags each request with a short id and logs it when it
// finishes. Successful requests are logged at debug level unless verbose.
func RequestLogger(verbose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()[:8]
			w.Header().Set("X-Request-ID", requestID)

			entry := logging.Logger.WithField("request_id", requestID)
			r = r.WithContext(context.WithValue(r.Context(), loggerKey, entry))

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			fields := entry.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   wrapped.status,
				"size":     wrapped.size,
				"duration": time.Since(start).String(),
			})
			switch {
			case wrapped.status >= http.StatusInternalServerError:
				fields.Error("request")
			case wrapped.status >= http.StatusBadRequest:
				fields.Warn("request")
			case verbose:
				fields.Info("request")
			default:
				fields.Debug("request")
			}
		})
	}
}

// LoggerFrom returns the request-scoped log entry, or one on the global
// logger when RequestLogger is not installed.
func LoggerFrom(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(logging.Logger)
}
