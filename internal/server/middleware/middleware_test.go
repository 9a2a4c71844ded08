package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repstack/repstack/internal/reperrors"
)

func testChain() func(http.Handler) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Chain(logger, reperrors.NewHTTPAdapter(logger), "", nil)
}

func TestChain_AssignsAndEchoesRequestID(t *testing.T) {
	var seen string
	h := testChain()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestChain_KeepsClientRequestID(t *testing.T) {
	var seen string
	h := testChain()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("X-Request-Id", "client-chosen")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "client-chosen", seen)
	require.Equal(t, "client-chosen", rec.Header().Get("X-Request-Id"))
}

func TestChain_RecoversPanicsAs500(t *testing.T) {
	h := testChain()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}

func TestChain_CORSOriginConfigured_StampsHeaders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chain := Chain(logger, reperrors.NewHTTPAdapter(logger), "http://localhost:5173", nil)
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestChain_CORSPreflight_ShortCircuits(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chain := Chain(logger, reperrors.NewHTTPAdapter(logger), "http://localhost:5173", nil)

	called := false
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/posts", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.False(t, called)
}

func TestChain_NoCORSOrigin_LeavesHeadersAlone(t *testing.T) {
	h := testChain()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type stubVerifier struct {
	subject string
	err     error
}

func (s stubVerifier) Verify(token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.subject, nil
}

func TestRequireSession_MissingToken_Returns401(t *testing.T) {
	adapter := reperrors.NewHTTPAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := RequireSession(stubVerifier{subject: "jane@example.com"}, adapter)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not run")
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSession_InvalidToken_Returns401(t *testing.T) {
	adapter := reperrors.NewHTTPAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := RequireSession(stubVerifier{err: reperrors.AuthError("session token invalid").Build()}, adapter)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler should not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSession_ValidToken_ExposesSubject(t *testing.T) {
	adapter := reperrors.NewHTTPAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var subject string
	h := RequireSession(stubVerifier{subject: "jane@example.com"}, adapter)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject = SubjectFrom(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "jane@example.com", subject)
}

func TestBearerToken_ParsesSchemeCaseInsensitive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc123")

	token, ok := bearerToken(req)
	require.True(t, ok)
	require.Equal(t, "abc123", token)

	req.Header.Set("Authorization", "Basic abc123")
	_, ok = bearerToken(req)
	require.False(t, ok)

	req.Header.Del("Authorization")
	_, ok = bearerToken(req)
	require.False(t, ok)
}
