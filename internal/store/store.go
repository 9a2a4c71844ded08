// Package store defines the content store abstraction: a remote file store
// keyed by path, with optimistic concurrency through an opaque content hash
// ("sha"). The GitHub contents API and a local git worktree both implement
// it; handlers never know which one they talk to.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/repstack/repstack/internal/metrics"
	"github.com/repstack/repstack/internal/reperrors"
)

// File is one stored document. SHA is the store's version token for the
// content as read; callers pass it back on Write/Delete so the store can
// detect concurrent modification.
type File struct {
	Path    string
	Content []byte
	SHA     string
}

// Entry is a directory listing item.
type Entry struct {
	Path string
	SHA  string
}

// Sentinel errors shared by all implementations. Compare with errors.Is;
// implementations attach path context to their own instances.
var (
	ErrNotFound    = reperrors.NotFoundError("file not found").Build()
	ErrSHAMismatch = reperrors.ConflictError("content hash changed").Build()
)

// Store is a remote file store with optimistic concurrency.
//
// Write with an empty expectedSHA creates the file and fails with
// ErrSHAMismatch if it already exists. A non-empty expectedSHA updates the
// file and fails with ErrSHAMismatch when the stored hash has moved on, or
// ErrNotFound when the file is gone. The store never merges or retries;
// conflict resolution belongs to the caller, who re-reads and decides.
type Store interface {
	Name() string
	Read(ctx context.Context, path string) (File, error)
	Write(ctx context.Context, path string, content []byte, message, expectedSHA string) (File, error)
	Delete(ctx context.Context, path, message, expectedSHA string) error
	List(ctx context.Context, dir string) ([]Entry, error)
}

// Instrument wraps a store with metrics. A nil recorder degrades to the
// noop recorder.
func Instrument(s Store, rec metrics.Recorder) Store {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &instrumented{inner: s, rec: rec}
}

type instrumented struct {
	inner Store
	rec   metrics.Recorder
}

func (s *instrumented) Name() string { return s.inner.Name() }

func (s *instrumented) Read(ctx context.Context, path string) (File, error) {
	start := time.Now()
	f, err := s.inner.Read(ctx, path)
	s.observe("read", start, err)
	return f, err
}

func (s *instrumented) Write(ctx context.Context, path string, content []byte, message, expectedSHA string) (File, error) {
	start := time.Now()
	f, err := s.inner.Write(ctx, path, content, message, expectedSHA)
	s.observe("write", start, err)
	return f, err
}

func (s *instrumented) Delete(ctx context.Context, path, message, expectedSHA string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, path, message, expectedSHA)
	s.observe("delete", start, err)
	return err
}

func (s *instrumented) List(ctx context.Context, dir string) ([]Entry, error) {
	start := time.Now()
	entries, err := s.inner.List(ctx, dir)
	s.observe("list", start, err)
	return entries, err
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	s.rec.ObserveStoreOpDuration(s.inner.Name(), op, time.Since(start), err == nil)

	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, ErrSHAMismatch):
		result = metrics.ResultConflict
	case err != nil:
		result = metrics.ResultFailed
	}
	s.rec.IncStoreOpResult(s.inner.Name(), op, result)
}
