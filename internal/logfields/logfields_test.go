package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"Path", KeyPath, "/api/posts", Path("/api/posts")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
		{"Slug", KeySlug, "leg-day", Slug("leg-day")},
		{"UID", KeyUID, "u1", UID("u1")},
		{"File", KeyFile, "posts/leg-day.md", File("posts/leg-day.md")},
		{"SHA", KeySHA, "abc123", SHA("abc123")},
		{"Store", KeyStore, "github", Store("github")},
		{"Repository", KeyRepo, "sam/blog-content", Repository("sam/blog-content")},
		{"TokenID", KeyTokenID, "tok1", TokenID("tok1")},
		{"Job", KeyJob, "publish", Job("publish")},
		{"Subject", KeySubject, "posts.published", Subject("posts.published")},
		{"URL", KeyURL, "http://example", URL("http://example")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal { // Value is slog.Value
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Status(200); v.Key != KeyStatus {
		t.Fatalf("Status key mismatch: %s", v.Key)
	}
	if v := ResponseSize(42); v.Key != KeyResponseSz {
		t.Fatalf("ResponseSize key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestEmailHelper ensures addresses never reach logs unredacted.
func TestEmailHelper(t *testing.T) {
	if got := Email("samantha@example.com").Value.String(); got != "sam***@example.com" {
		t.Fatalf("Expected redacted address, got %s", got)
	}
	if got := Email("al@example.com").Value.String(); got != "al***@example.com" {
		t.Fatalf("Expected short local part kept, got %s", got)
	}
	// Not an address at all: logged as-is rather than guessed at.
	if got := Email("not-an-email").Value.String(); got != "not-an-email" {
		t.Fatalf("Expected passthrough, got %s", got)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
