// Package middleware provides HTTP middleware for the admin API: request
// identifiers, logging, CORS, panic recovery and session authentication.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/metrics"
	"github.com/repstack/repstack/internal/reperrors"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	subjectKey   contextKey = "subject"
)

// Chain returns a middleware wrapper applying request-id, logging, CORS and
// panic recovery around a handler. corsOrigin may be empty to disable CORS
// headers; rec may be nil.
func Chain(logger *slog.Logger, adapter *reperrors.HTTPAdapter, corsOrigin string, rec metrics.Recorder) func(http.Handler) http.Handler {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return func(next http.Handler) http.Handler {
		return requestIDMiddleware(
			loggingMiddleware(logger, rec,
				corsMiddleware(corsOrigin,
					panicRecoveryMiddleware(logger, adapter, next))))
	}
}

// RequestIDFrom returns the request identifier stored by the chain, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// SubjectFrom returns the authenticated session subject stored by
// RequireSession, or "".
func SubjectFrom(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}

// requestIDMiddleware assigns each request an identifier, honoring one the
// client already sent, and echoes it in the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs method, path, status, duration, user agent, and
// remote addr, and records the request duration.
func loggingMiddleware(logger *slog.Logger, rec metrics.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		rec.ObserveRequestDuration(r.Method, r.URL.Path, wrapped.statusCode, duration)
		logger.Info("HTTP request",
			logfields.RequestID(RequestIDFrom(r.Context())),
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.statusCode),
			logfields.DurationMS(float64(duration.Microseconds())/1000),
			logfields.UserAgent(r.UserAgent()),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

// corsMiddleware answers preflight requests and stamps CORS headers for the
// configured admin frontend origin.
func corsMiddleware(origin string, next http.Handler) http.Handler {
	if origin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		h.Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// panicRecoveryMiddleware recovers from panics and writes a structured error
// response via the adapter.
func panicRecoveryMiddleware(logger *slog.Logger, adapter *reperrors.HTTPAdapter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("HTTP handler panic",
					slog.Any("panic", v),
					logfields.RequestID(RequestIDFrom(r.Context())),
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path))

				panicErr := reperrors.New(reperrors.CategoryInternal, "internal server error").
					WithContext("path", r.URL.Path).
					Build()
				adapter.WriteError(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SessionVerifier checks a bearer token and returns its subject.
type SessionVerifier interface {
	Verify(token string) (string, error)
}

// RequireSession rejects requests without a valid bearer session token and
// stores the subject in the request context.
func RequireSession(verifier SessionVerifier, adapter *reperrors.HTTPAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				adapter.WriteError(w, r, reperrors.AuthError("missing bearer token").Build())
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				adapter.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
