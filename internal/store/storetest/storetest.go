// Package storetest provides an in-memory Store implementation for tests
// in packages that sit on top of the store abstraction.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/repstack/repstack/internal/store"
)

type memFile struct {
	content []byte
	sha     string
}

// MemStore keeps files in a map and hands out synthetic shas. It applies
// the same optimistic-concurrency rules as the real stores, so conflict
// paths are testable without a network or a repository.
type MemStore struct {
	mu    sync.Mutex
	files map[string]memFile
	seq   int

	// FailWith, when set, makes every operation return this error.
	FailWith error
	// Messages records the commit messages of mutating calls in order.
	Messages []string
}

// New returns an empty store.
func New() *MemStore {
	return &MemStore{files: make(map[string]memFile)}
}

// NewWithFiles returns a store seeded with path → content.
func NewWithFiles(files map[string]string) *MemStore {
	m := New()
	for p, c := range files {
		m.seq++
		m.files[p] = memFile{content: []byte(c), sha: fmt.Sprintf("sha-%d", m.seq)}
	}
	return m
}

func (m *MemStore) Name() string { return "mem" }

// SHA returns the current sha of path, or "" when absent.
func (m *MemStore) SHA(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[path].sha
}

// Content returns the current content of path, or "" when absent.
func (m *MemStore) Content(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.files[path].content)
}

func (m *MemStore) Read(ctx context.Context, path string) (store.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return store.File{}, m.FailWith
	}
	f, ok := m.files[path]
	if !ok {
		return store.File{}, store.ErrNotFound.WithContext("path", path)
	}
	return store.File{Path: path, Content: append([]byte(nil), f.content...), SHA: f.sha}, nil
}

func (m *MemStore) Write(ctx context.Context, path string, content []byte, message, expectedSHA string) (store.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return store.File{}, m.FailWith
	}

	current, exists := m.files[path]
	switch {
	case expectedSHA == "" && exists:
		return store.File{}, store.ErrSHAMismatch.WithContext("path", path)
	case expectedSHA != "" && !exists:
		return store.File{}, store.ErrNotFound.WithContext("path", path)
	case expectedSHA != "" && expectedSHA != current.sha:
		return store.File{}, store.ErrSHAMismatch.WithContext("path", path)
	}

	m.seq++
	f := memFile{content: append([]byte(nil), content...), sha: fmt.Sprintf("sha-%d", m.seq)}
	m.files[path] = f
	m.Messages = append(m.Messages, message)
	return store.File{Path: path, Content: content, SHA: f.sha}, nil
}

func (m *MemStore) Delete(ctx context.Context, path, message, expectedSHA string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	current, exists := m.files[path]
	if !exists {
		return store.ErrNotFound.WithContext("path", path)
	}
	if expectedSHA == "" || expectedSHA != current.sha {
		return store.ErrSHAMismatch.WithContext("path", path)
	}

	delete(m.files, path)
	m.Messages = append(m.Messages, message)
	return nil
}

func (m *MemStore) List(ctx context.Context, dir string) ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	prefix := strings.TrimSuffix(dir, "/") + "/"
	var entries []store.Entry
	for p, f := range m.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, store.Entry{Path: p, SHA: f.sha})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
