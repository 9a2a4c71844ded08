package reperrors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPAdapter turns classified errors into JSON responses and status codes
// for the admin API.
type HTTPAdapter struct {
	logger *slog.Logger
}

// NewHTTPAdapter creates an adapter. A nil logger falls back to the default
// package logger.
func NewHTTPAdapter(logger *slog.Logger) *HTTPAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPAdapter{logger: logger}
}

// HTTPResponse is the standard JSON error payload.
type HTTPResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor maps an error's category to an HTTP status. Unclassified
// errors map to 500.
func (a *HTTPAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if c, ok := As(err); ok {
		switch c.Category() {
		case CategoryValidation, CategoryConfig, CategoryContent:
			return http.StatusBadRequest
		case CategoryAuth:
			return http.StatusUnauthorized
		case CategoryNotFound:
			return http.StatusNotFound
		case CategoryConflict:
			return http.StatusConflict
		case CategoryStore, CategoryGit, CategoryNetwork:
			return http.StatusBadGateway
		case CategoryMail, CategoryNotify, CategoryPublish:
			return http.StatusServiceUnavailable
		case CategoryDatabase, CategoryRuntime, CategoryInternal:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}

	return http.StatusInternalServerError
}

// WriteError writes the JSON error response and logs it at the level
// matching the error's severity.
func (a *HTTPAdapter) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	payload := a.Format(err)

	b, jerr := json.Marshal(payload)
	if jerr != nil {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)

	if c, ok := As(err); ok {
		a.logger.Log(r.Context(), levelForSeverity(c.Severity()), c.Error())
		return
	}
	a.logger.Error(err.Error())
}

// Format converts an error into the canonical payload. The message shown to
// clients is the classified message without the category/severity prefix.
func (a *HTTPAdapter) Format(err error) HTTPResponse {
	if err == nil {
		return HTTPResponse{}
	}
	if c, ok := As(err); ok {
		resp := HTTPResponse{Error: c.Message(), Code: string(c.Category())}
		if len(c.Context()) > 0 {
			resp.Details = map[string]any(c.Context())
		}
		if c.RetryStrategy() != RetryNever {
			resp.Retryable = true
		}
		return resp
	}
	return HTTPResponse{Error: err.Error()}
}

func levelForSeverity(s Severity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
