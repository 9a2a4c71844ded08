// Package gitstore implements the content store against a local clone.
// Files live in the worktree and every mutation becomes a commit, so the
// repository history stays equivalent to what the GitHub-backed store
// produces. The concurrency token is the git blob hash of the file
// content, which keeps SHAs interchangeable between both stores.
package gitstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/store"
)

// Options configures the store. Path is required and may point at an
// existing clone or an empty directory, which gets initialized.
type Options struct {
	Path           string
	CommitterName  string
	CommitterEmail string
}

// Store is a Store backed by one local repository.
type Store struct {
	opts Options
	repo *git.Repository

	// Serializes check-then-write sequences; the worktree is not safe
	// for concurrent mutation.
	mu sync.Mutex
}

// New opens the repository at opts.Path, initializing a fresh one when
// the directory is not a repository yet.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, reperrors.ConfigError("git store requires a repository path").Build()
	}
	if opts.CommitterName == "" {
		opts.CommitterName = "repstack"
	}
	if opts.CommitterEmail == "" {
		opts.CommitterEmail = "repstack@localhost"
	}

	if err := os.MkdirAll(opts.Path, 0o750); err != nil {
		return nil, reperrors.Wrap(err, reperrors.CategoryGit, "create repository directory").WithContext("path", opts.Path).Build()
	}

	repo, err := git.PlainOpen(opts.Path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(opts.Path, false)
	}
	if err != nil {
		return nil, reperrors.Wrap(err, reperrors.CategoryGit, "open repository").WithContext("path", opts.Path).Build()
	}
	return &Store{opts: opts, repo: repo}, nil
}

// Name identifies the store in logs and metrics.
func (s *Store) Name() string { return "git" }

// Read returns the worktree content of one file.
func (s *Store) Read(ctx context.Context, filePath string) (store.File, error) {
	if err := ctx.Err(); err != nil {
		return store.File{}, err
	}

	content, err := os.ReadFile(s.abs(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return store.File{}, store.ErrNotFound.WithContext("path", filePath)
		}
		return store.File{}, reperrors.Wrap(err, reperrors.CategoryGit, "read file").WithContext("path", filePath).Build()
	}
	return store.File{Path: filePath, Content: content, SHA: blobSHA(content)}, nil
}

// Write creates or updates a file and commits the change. Empty
// expectedSHA means create; a present file then conflicts. Updates
// conflict when the on-disk content no longer hashes to expectedSHA.
func (s *Store) Write(ctx context.Context, filePath string, content []byte, message, expectedSHA string) (store.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return store.File{}, err
	}
	if err := s.checkCurrent(filePath, expectedSHA, true); err != nil {
		return store.File{}, err
	}

	abs := s.abs(filePath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return store.File{}, reperrors.Wrap(err, reperrors.CategoryGit, "create parent directory").WithContext("path", filePath).Build()
	}
	if err := os.WriteFile(abs, content, 0o640); err != nil {
		return store.File{}, reperrors.Wrap(err, reperrors.CategoryGit, "write file").WithContext("path", filePath).Build()
	}
	if err := s.commit(filePath, message, false); err != nil {
		return store.File{}, err
	}
	return store.File{Path: filePath, Content: content, SHA: blobSHA(content)}, nil
}

// Delete removes a file and commits the removal.
func (s *Store) Delete(ctx context.Context, filePath, message, expectedSHA string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if expectedSHA == "" {
		return reperrors.ValidationError("delete requires the current content hash").WithContext("path", filePath).Build()
	}
	if err := s.checkCurrent(filePath, expectedSHA, false); err != nil {
		return err
	}
	return s.commit(filePath, message, true)
}

// List returns the files directly under dir, skipping dotfiles and
// subdirectories. A missing directory lists as empty.
func (s *Store) List(ctx context.Context, dir string) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.abs(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, reperrors.Wrap(err, reperrors.CategoryGit, "list directory").WithContext("path", dir).Build()
	}

	var entries []store.Entry
	for _, de := range dirEntries {
		if de.IsDir() || de.Name()[0] == '.' {
			continue
		}
		rel := filepath.ToSlash(filepath.Join(dir, de.Name()))
		content, err := os.ReadFile(s.abs(rel))
		if err != nil {
			continue
		}
		entries = append(entries, store.Entry{Path: rel, SHA: blobSHA(content)})
	}
	return entries, nil
}

// checkCurrent compares the on-disk state against the caller's view.
func (s *Store) checkCurrent(filePath, expectedSHA string, creating bool) error {
	content, err := os.ReadFile(s.abs(filePath))
	if err != nil {
		if !os.IsNotExist(err) {
			return reperrors.Wrap(err, reperrors.CategoryGit, "read file").WithContext("path", filePath).Build()
		}
		if expectedSHA != "" {
			return store.ErrNotFound.WithContext("path", filePath)
		}
		return nil
	}

	if expectedSHA == "" {
		if creating {
			return store.ErrSHAMismatch.WithContext("path", filePath)
		}
		return nil
	}
	if blobSHA(content) != expectedSHA {
		return store.ErrSHAMismatch.WithContext("path", filePath)
	}
	return nil
}

func (s *Store) commit(filePath, message string, remove bool) error {
	wt, err := s.repo.Worktree()
	if err != nil {
		return reperrors.Wrap(err, reperrors.CategoryGit, "open worktree").Build()
	}

	if remove {
		if _, err := wt.Remove(filePath); err != nil {
			return reperrors.Wrap(err, reperrors.CategoryGit, "stage removal").WithContext("path", filePath).Build()
		}
	} else {
		if _, err := wt.Add(filePath); err != nil {
			return reperrors.Wrap(err, reperrors.CategoryGit, "stage file").WithContext("path", filePath).Build()
		}
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.opts.CommitterName,
			Email: s.opts.CommitterEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return reperrors.Wrap(err, reperrors.CategoryGit, "commit").WithContext("path", filePath).Build()
	}
	return nil
}

func (s *Store) abs(filePath string) string {
	return filepath.Join(s.opts.Path, filepath.FromSlash(filePath))
}

// blobSHA hashes content the way git hashes a blob, so tokens issued by
// this store match the ones the GitHub contents API reports.
func blobSHA(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}
