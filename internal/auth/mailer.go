package auth

import (
	"context"
	"log/slog"

	"github.com/repstack/repstack/internal/logfields"
)

// Mailer delivers the magic-link email. Delivery is pluggable; the
// default implementation writes the link to the log, which is how a
// single-operator deployment without an SMTP relay runs.
type Mailer interface {
	SendLoginLink(ctx context.Context, email, link string) error
}

// LogMailer logs login links instead of sending them.
type LogMailer struct{}

func (LogMailer) SendLoginLink(_ context.Context, email, link string) error {
	slog.Info("login link issued", logfields.Email(email), logfields.URL(link))
	return nil
}
