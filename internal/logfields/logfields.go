package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRequestID  = "request_id"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyResponseSz = "response_size"
	KeyDurationMS = "duration_ms"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeySlug       = "slug"
	KeyUID        = "uid"
	KeyFile       = "file"
	KeySHA        = "sha"
	KeyStore      = "store"
	KeyRepo       = "repository"
	KeyEmail      = "email"
	KeyTokenID    = "token_id"
	KeyJob        = "job"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func ResponseSize(n int) slog.Attr    { return slog.Int(KeyResponseSz, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func UID(id string) slog.Attr         { return slog.String(KeyUID, id) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func SHA(sha string) slog.Attr        { return slog.String(KeySHA, sha) }
func Store(name string) slog.Attr     { return slog.String(KeyStore, name) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func TokenID(id string) slog.Attr     { return slog.String(KeyTokenID, id) }
func Job(name string) slog.Attr       { return slog.String(KeyJob, name) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }

// Email logs only the part before the @ truncated to three characters.
// Full addresses stay out of the logs.
func Email(addr string) slog.Attr {
	redacted := addr
	for i := 0; i < len(addr); i++ {
		if addr[i] == '@' {
			local := addr[:i]
			if len(local) > 3 {
				local = local[:3]
			}
			redacted = local + "***" + addr[i:]
			break
		}
	}
	return slog.String(KeyEmail, redacted)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
