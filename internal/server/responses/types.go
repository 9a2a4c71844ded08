// Package responses defines API response types used by the admin HTTP
// handlers.
package responses

import (
	"time"

	"github.com/repstack/repstack/internal/content"
	"github.com/repstack/repstack/internal/preview"
)

// LoginResponse acknowledges a login request. The body is identical whether
// or not the address is known so responses cannot be used to probe for it.
type LoginResponse struct {
	Status string `json:"status"`
}

// SessionResponse carries a freshly issued session token.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionInfoResponse describes the session behind a bearer token.
type SessionInfoResponse struct {
	Subject string `json:"subject"`
}

// PostListResponse is the post index.
type PostListResponse struct {
	Posts []content.Summary `json:"posts"`
	Count int               `json:"count"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

// PreviewResponse carries rendered HTML plus the links found in it.
type PreviewResponse struct {
	HTML  string         `json:"html"`
	Links []preview.Link `json:"links"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
}
