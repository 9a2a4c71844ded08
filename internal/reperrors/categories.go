package reperrors

import "maps"

// Category is the broad classification of an error, used for HTTP status
// mapping, CLI exit codes and log routing.
type Category string

const (
	// CategoryConfig through CategoryConflict are user-facing input errors.
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"
	CategoryAuth       Category = "auth"
	CategoryNotFound   Category = "not_found"
	CategoryConflict   Category = "conflict"

	// CategoryStore through CategoryNotify are external system errors.
	CategoryStore   Category = "store"
	CategoryGit     Category = "git"
	CategoryNetwork Category = "network"
	CategoryMail    Category = "mail"
	CategoryNotify  Category = "notify"

	// CategoryContent through CategoryInternal are processing and
	// infrastructure errors.
	CategoryContent  Category = "content"
	CategoryDatabase Category = "database"
	CategoryPublish  Category = "publish"
	CategoryRuntime  Category = "runtime"
	CategoryInternal Category = "internal"
)

// Severity indicates the impact level of an error.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops execution completely
	SeverityError   Severity = "error"   // Fails the current operation
	SeverityWarning Severity = "warning" // Continues with degraded functionality
	SeverityInfo    Severity = "info"    // Informational, no impact
)

// RetryStrategy indicates how an error should be handled in retry scenarios.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"      // Permanent failure, don't retry
	RetryImmediate  RetryStrategy = "immediate"  // Retry immediately
	RetryBackoff    RetryStrategy = "backoff"    // Retry with exponential backoff
	RetryRateLimit  RetryStrategy = "rate_limit" // Retry after rate limit window
	RetryUserAction RetryStrategy = "user"       // Requires user intervention
)

// Context carries structured key/value detail alongside an error.
type Context map[string]any

// Set adds or updates a context value.
func (c Context) Set(key string, value any) Context {
	if c == nil {
		c = make(Context)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c Context) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c Context) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c Context) Merge(other Context) Context {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(Context)
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
