// Package auth implements the admin login flow: a magic link mailed to
// the configured operator, exchanged for a stateless signed session.
// There are no accounts; exactly one email address may log in.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/metrics"
	"github.com/repstack/repstack/internal/reperrors"
)

// Options configures the manager.
type Options struct {
	// OperatorEmail is the only address allowed to log in.
	OperatorEmail string
	// BaseURL is the admin UI origin login links point at.
	BaseURL string
	// LoginTTL bounds how long a mailed link stays valid.
	LoginTTL time.Duration
}

// Manager drives the login flow end to end.
type Manager struct {
	operator string
	baseURL  string
	loginTTL time.Duration
	tokens   *TokenStore
	signer   *SessionSigner
	mailer   Mailer
	rec      metrics.Recorder
}

// NewManager wires the flow together. A nil mailer falls back to
// LogMailer, a nil recorder to the noop recorder.
func NewManager(opts Options, tokens *TokenStore, signer *SessionSigner, mailer Mailer, rec metrics.Recorder) (*Manager, error) {
	operator := strings.ToLower(strings.TrimSpace(opts.OperatorEmail))
	if operator == "" || !strings.Contains(operator, "@") {
		return nil, reperrors.ConfigError("operator email is required").Build()
	}
	if opts.BaseURL == "" {
		return nil, reperrors.ConfigError("admin base url is required").Build()
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, reperrors.ConfigError("admin base url is not a valid url").WithContext("url", opts.BaseURL).Build()
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	loginTTL := opts.LoginTTL
	if loginTTL <= 0 {
		loginTTL = 15 * time.Minute
	}
	return &Manager{
		operator: operator,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		loginTTL: loginTTL,
		tokens:   tokens,
		signer:   signer,
		mailer:   mailer,
		rec:      rec,
	}, nil
}

// RequestLogin issues and mails a magic link when email is the operator.
// Any other address succeeds silently so the endpoint does not confirm
// which address is configured.
func (m *Manager) RequestLogin(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized != m.operator {
		slog.Warn("login requested for unknown address", logfields.Email(normalized))
		m.rec.IncMagicLink(metrics.ResultDenied)
		return nil
	}

	token, err := m.tokens.Issue(ctx, normalized, m.loginTTL)
	if err != nil {
		m.rec.IncMagicLink(metrics.ResultFailed)
		return err
	}

	link := fmt.Sprintf("%s/admin/login?token=%s", m.baseURL, url.QueryEscape(token.ID))
	if err := m.mailer.SendLoginLink(ctx, normalized, link); err != nil {
		m.rec.IncMagicLink(metrics.ResultFailed)
		return reperrors.Wrap(err, reperrors.CategoryMail, "send login link").Retryable().Build()
	}

	slog.Info("magic link sent", logfields.Email(normalized), logfields.TokenID(token.ID))
	m.rec.IncMagicLink(metrics.ResultSuccess)
	return nil
}

// Exchange trades a one-time login token for a session token.
func (m *Manager) Exchange(ctx context.Context, tokenID string) (string, time.Time, error) {
	email, err := m.tokens.Consume(ctx, tokenID)
	if err != nil {
		m.rec.IncSession(metrics.ResultDenied)
		return "", time.Time{}, err
	}

	session, expiresAt := m.signer.Sign(email)
	slog.Info("session issued", logfields.Email(email))
	m.rec.IncSession(metrics.ResultSuccess)
	return session, expiresAt, nil
}

// Verify validates a session token and returns its subject.
func (m *Manager) Verify(token string) (string, error) {
	return m.signer.Verify(token)
}

// PurgeExpired removes dead login tokens; the scheduler calls this
// periodically.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.tokens.PurgeExpired(ctx)
}

// Close releases the token store.
func (m *Manager) Close() error {
	return m.tokens.Close()
}
