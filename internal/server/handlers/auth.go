package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/server/middleware"
	"github.com/repstack/repstack/internal/server/responses"
)

// AuthManager is the slice of the auth manager the handlers need.
type AuthManager interface {
	RequestLogin(ctx context.Context, email string) error
	Exchange(ctx context.Context, tokenID string) (string, time.Time, error)
}

// AuthHandlers serves the magic-link login flow.
type AuthHandlers struct {
	manager AuthManager
	adapter *reperrors.HTTPAdapter
}

// NewAuthHandlers creates the login flow handlers.
func NewAuthHandlers(manager AuthManager, adapter *reperrors.HTTPAdapter) *AuthHandlers {
	return &AuthHandlers{manager: manager, adapter: adapter}
}

type loginRequest struct {
	Email string `json:"email"`
}

type exchangeRequest struct {
	Token string `json:"token"`
}

// HandleLogin accepts a login request and mails a magic link when the
// address is the operator's. The response never reveals whether it was.
func (h *AuthHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}
	if req.Email == "" {
		h.adapter.WriteError(w, r, reperrors.ValidationError("email is required").Build())
		return
	}

	if err := h.manager.RequestLogin(r.Context(), req.Email); err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	_ = writeJSON(w, http.StatusAccepted, responses.LoginResponse{Status: "ok"})
}

// HandleExchange trades a single-use login token for a session token.
func (h *AuthHandlers) HandleExchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}
	if req.Token == "" {
		h.adapter.WriteError(w, r, reperrors.ValidationError("token is required").Build())
		return
	}

	session, expiresAt, err := h.manager.Exchange(r.Context(), req.Token)
	if err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, responses.SessionResponse{
		Token:     session,
		ExpiresAt: expiresAt,
	})
}

// HandleSession reports the subject of the authenticated session. It is
// mounted behind RequireSession, which rejects bad tokens before it runs.
func (h *AuthHandlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, responses.SessionInfoResponse{
		Subject: middleware.SubjectFrom(r.Context()),
	})
}
