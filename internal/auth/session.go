package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/repstack/repstack/internal/reperrors"
)

// ErrSessionInvalid covers malformed, forged and expired session tokens.
var ErrSessionInvalid = reperrors.AuthError("session invalid or expired").Build()

type sessionClaims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
}

// SessionSigner mints and verifies stateless session tokens. A token is
// base64url(claims) + "." + base64url(hmac-sha256(claims)); there is no
// server-side session state, logout happens by expiry.
type SessionSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionSigner builds a signer. The secret must carry real entropy;
// anything under 32 bytes is refused.
func NewSessionSigner(secret string, ttl time.Duration) (*SessionSigner, error) {
	if len(secret) < 32 {
		return nil, reperrors.ConfigError("session secret must be at least 32 bytes").Build()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign mints a token for subject, returning the token and its expiry.
func (s *SessionSigner) Sign(subject string) (string, time.Time) {
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload, _ := json.Marshal(sessionClaims{Subject: subject, ExpiresAt: expiresAt.Unix()})

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.sign(encoded), expiresAt
}

// Verify checks the signature and expiry and returns the subject.
func (s *SessionSigner) Verify(token string) (string, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrSessionInvalid
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return "", ErrSessionInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrSessionInvalid
	}
	var claims sessionClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", ErrSessionInvalid
	}
	if claims.Subject == "" || s.now().Unix() > claims.ExpiresAt {
		return "", ErrSessionInvalid
	}
	return claims.Subject, nil
}

func (s *SessionSigner) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
