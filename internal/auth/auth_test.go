package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	email string
	link  string
	fail  bool
}

func (m *captureMailer) SendLoginLink(_ context.Context, email, link string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.email = email
	m.link = link
	return nil
}

func newTestManager(t *testing.T, mailer Mailer) *Manager {
	t.Helper()
	tokens := newTestTokenStore(t)
	signer, err := NewSessionSigner(testSecret, time.Hour)
	require.NoError(t, err)

	mgr, err := NewManager(Options{
		OperatorEmail: "Jane@Example.com",
		BaseURL:       "https://blog.example.com/",
		LoginTTL:      15 * time.Minute,
	}, tokens, signer, mailer, nil)
	require.NoError(t, err)
	return mgr
}

func TestManager_FullLoginFlow(t *testing.T) {
	mailer := &captureMailer{}
	mgr := newTestManager(t, mailer)
	ctx := context.Background()

	require.NoError(t, mgr.RequestLogin(ctx, "jane@example.com"))
	require.Equal(t, "jane@example.com", mailer.email)
	require.Contains(t, mailer.link, "https://blog.example.com/admin/login?token=")

	tokenID := mailer.link[len("https://blog.example.com/admin/login?token="):]
	session, expiresAt, err := mgr.Exchange(ctx, tokenID)
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	subject, err := mgr.Verify(session)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", subject)
}

func TestManager_UnknownAddress_SilentlySucceedsWithoutMail(t *testing.T) {
	mailer := &captureMailer{}
	mgr := newTestManager(t, mailer)

	require.NoError(t, mgr.RequestLogin(context.Background(), "intruder@example.com"))
	require.Empty(t, mailer.link)
}

func TestManager_OperatorAddressIsCaseInsensitive(t *testing.T) {
	mailer := &captureMailer{}
	mgr := newTestManager(t, mailer)

	require.NoError(t, mgr.RequestLogin(context.Background(), "  JANE@example.COM "))
	require.NotEmpty(t, mailer.link)
}

func TestManager_MailFailure_SurfacesError(t *testing.T) {
	mgr := newTestManager(t, &captureMailer{fail: true})

	err := mgr.RequestLogin(context.Background(), "jane@example.com")
	require.Error(t, err)
}

func TestManager_Exchange_RejectsReplay(t *testing.T) {
	mailer := &captureMailer{}
	mgr := newTestManager(t, mailer)
	ctx := context.Background()

	require.NoError(t, mgr.RequestLogin(ctx, "jane@example.com"))
	tokenID := mailer.link[len("https://blog.example.com/admin/login?token="):]

	_, _, err := mgr.Exchange(ctx, tokenID)
	require.NoError(t, err)

	_, _, err = mgr.Exchange(ctx, tokenID)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestNewManager_ValidatesOptions(t *testing.T) {
	tokens := newTestTokenStore(t)
	signer, err := NewSessionSigner(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = NewManager(Options{BaseURL: "https://x"}, tokens, signer, nil, nil)
	require.Error(t, err)

	_, err = NewManager(Options{OperatorEmail: "jane@example.com"}, tokens, signer, nil, nil)
	require.Error(t, err)
}
