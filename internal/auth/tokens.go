package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/repstack/repstack/internal/reperrors"
)

// ErrTokenInvalid covers every login-token failure: unknown, expired and
// already used. Callers get one message so the response does not reveal
// which tokens exist.
var ErrTokenInvalid = reperrors.AuthError("login token invalid or expired").Build()

// LoginToken is a single-use magic-link credential.
type LoginToken struct {
	ID        string
	Email     string
	ExpiresAt time.Time
}

// TokenStore persists login tokens in SQLite so a pending login survives
// a process restart.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore opens (or creates) the token database. Use ":memory:"
// in tests.
func NewTokenStore(dbPath string) (*TokenStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, reperrors.Wrap(err, reperrors.CategoryDatabase, "open token database").WithContext("path", dbPath).Build()
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from silently forking per connection.
	db.SetMaxOpenConns(1)

	s := &TokenStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, reperrors.Wrap(err, reperrors.CategoryDatabase, "initialize token schema").Build()
	}
	return s, nil
}

func (s *TokenStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS login_tokens (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		used_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_login_tokens_expires ON login_tokens(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Issue creates a fresh token for email, valid for ttl.
func (s *TokenStore) Issue(ctx context.Context, email string, ttl time.Duration) (LoginToken, error) {
	token := LoginToken{
		ID:        uuid.NewString(),
		Email:     email,
		ExpiresAt: time.Now().Add(ttl).Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO login_tokens (id, email, expires_at) VALUES (?, ?, ?)",
		token.ID, token.Email, token.ExpiresAt.Unix(),
	)
	if err != nil {
		return LoginToken{}, reperrors.Wrap(err, reperrors.CategoryDatabase, "insert login token").Build()
	}
	return token, nil
}

// Consume atomically marks the token used and returns its email. A token
// that is unknown, expired or already used yields ErrTokenInvalid.
func (s *TokenStore) Consume(ctx context.Context, id string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", reperrors.Wrap(err, reperrors.CategoryDatabase, "begin consume").Build()
	}
	defer func() { _ = tx.Rollback() }()

	var email string
	var expiresAt int64
	var usedAt sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT email, expires_at, used_at FROM login_tokens WHERE id = ?", id,
	).Scan(&email, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTokenInvalid
	}
	if err != nil {
		return "", reperrors.Wrap(err, reperrors.CategoryDatabase, "load login token").Build()
	}

	now := time.Now()
	if usedAt.Valid || now.Unix() > expiresAt {
		return "", ErrTokenInvalid.WithContext("token_id", id)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE login_tokens SET used_at = ? WHERE id = ?", now.Unix(), id,
	); err != nil {
		return "", reperrors.Wrap(err, reperrors.CategoryDatabase, "mark token used").Build()
	}
	if err := tx.Commit(); err != nil {
		return "", reperrors.Wrap(err, reperrors.CategoryDatabase, "commit consume").Build()
	}
	return email, nil
}

// PurgeExpired deletes tokens past their expiry or already used. Returns
// the number of rows removed.
func (s *TokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM login_tokens WHERE expires_at < ? OR used_at IS NOT NULL", time.Now().Unix(),
	)
	if err != nil {
		return 0, reperrors.Wrap(err, reperrors.CategoryDatabase, "purge login tokens").Build()
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Close closes the database.
func (s *TokenStore) Close() error {
	return s.db.Close()
}
