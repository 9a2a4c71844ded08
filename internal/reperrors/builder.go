package reperrors

// Builder assembles an Error fluently. Terminal call is Build.
type Builder struct {
	category Category
	severity Severity
	retry    RetryStrategy
	message  string
	cause    error
	context  Context
}

// New starts a builder with the given category and message. Defaults are
// SeverityError and RetryNever.
func New(category Category, message string) *Builder {
	return &Builder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(Context),
	}
}

// Wrap starts a builder around an existing cause.
func Wrap(err error, category Category, message string) *Builder {
	b := New(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *Builder) WithSeverity(severity Severity) *Builder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *Builder) WithRetry(strategy RetryStrategy) *Builder {
	b.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *Builder) Fatal() *Builder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *Builder) Warning() *Builder {
	return b.WithSeverity(SeverityWarning)
}

// Retryable sets the retry strategy to backoff.
func (b *Builder) Retryable() *Builder {
	return b.WithRetry(RetryBackoff)
}

// RateLimit sets the retry strategy to rate limit.
func (b *Builder) RateLimit() *Builder {
	return b.WithRetry(RetryRateLimit)
}

// UserAction sets the retry strategy to require user intervention.
func (b *Builder) UserAction() *Builder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final Error.
func (b *Builder) Build() *Error {
	return &Error{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for the common shapes.

// ConfigError creates a configuration error.
func ConfigError(message string) *Builder {
	return New(CategoryConfig, message).Fatal()
}

// ValidationError creates a request validation error.
func ValidationError(message string) *Builder {
	return New(CategoryValidation, message)
}

// AuthError creates an authentication error.
func AuthError(message string) *Builder {
	return New(CategoryAuth, message).UserAction()
}

// NotFoundError creates a missing-resource error.
func NotFoundError(message string) *Builder {
	return New(CategoryNotFound, message)
}

// ConflictError creates an optimistic-concurrency conflict error. Callers
// resolve it by re-reading the current content hash, so retrying the same
// write verbatim is pointless.
func ConflictError(message string) *Builder {
	return New(CategoryConflict, message).UserAction()
}

// StoreError creates a remote file store error (typically retryable).
func StoreError(message string) *Builder {
	return New(CategoryStore, message).Retryable()
}

// GitError creates a git operation error.
func GitError(message string) *Builder {
	return New(CategoryGit, message).Retryable()
}

// NetworkError creates a network error.
func NetworkError(message string) *Builder {
	return New(CategoryNetwork, message).Retryable()
}

// MailError creates a mail delivery error.
func MailError(message string) *Builder {
	return New(CategoryMail, message).Retryable()
}

// ContentError creates a content processing error.
func ContentError(message string) *Builder {
	return New(CategoryContent, message)
}

// DatabaseError creates a local database error.
func DatabaseError(message string) *Builder {
	return New(CategoryDatabase, message).Retryable()
}

// PublishError creates a scheduled publish error.
func PublishError(message string) *Builder {
	return New(CategoryPublish, message).Retryable()
}

// InternalError creates an internal error.
func InternalError(message string) *Builder {
	return New(CategoryInternal, message).Fatal()
}
