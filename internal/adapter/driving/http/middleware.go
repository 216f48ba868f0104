package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// UserIDHeader carries the authenticated user id set by the identity proxy.
const UserIDHeader = "X-User-ID"

type userIDKey struct{}

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// ApplyMiddleware wraps the mux with identity, recovery, logging and, when rec
// is non-nil, request metrics.
func ApplyMiddleware(next http.Handler, logger *slog.Logger, rec RequestRecorder) http.Handler {
	// Recovery innermost so panics are caught before logging. Identity is
	// outermost: the mux records the matched pattern on the request it
	// receives, which must be the one logging reads.
	wrapped := recoveryMiddleware(logger, next)
	wrapped = loggingMiddleware(logger, rec, wrapped)
	wrapped = identityMiddleware(wrapped)
	return wrapped
}

// identityMiddleware stores the caller's user id from UserIDHeader in the
// request context. A missing header means an anonymous caller.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey{}, id))
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFrom returns the caller's user id, or "" for anonymous requests.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, rec RequestRecorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", elapsed.Round(time.Microsecond),
		)

		if rec != nil {
			rec.RecordHTTPRequest(r.Method, routeLabel(r), sw.status, elapsed)
		}
	})
}

// routeLabel returns the matched mux pattern so metric labels stay bounded.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
