package githubstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repstack/repstack/internal/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Options{
		Owner:  "acme",
		Repo:   "blog",
		Branch: "main",
		Token:  "test-token",
		APIURL: srv.URL,
	})
	require.NoError(t, err)
	return client
}

func TestNew_MissingOwnerOrToken_Fails(t *testing.T) {
	_, err := New(Options{Repo: "blog", Token: "t"})
	require.Error(t, err)

	_, err = New(Options{Owner: "acme", Repo: "blog"})
	require.Error(t, err)
}

func TestRead_DecodesChunkedContent_AndSendsAuthHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/repos/acme/blog/contents/posts/first.md", r.URL.Path)
		require.Equal(t, "main", r.URL.Query().Get("ref"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		require.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		// The API wraps base64 payloads across lines.
		json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  "aGVsbG8g\nd29ybGQ=\n",
			"sha":      "abc123",
			"path":     "posts/first.md",
		})
	})

	file, err := client.Read(context.Background(), "posts/first.md")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(file.Content))
	require.Equal(t, "abc123", file.SHA)
	require.Equal(t, "posts/first.md", file.Path)
}

func TestRead_Missing_ReturnsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	})

	_, err := client.Read(context.Background(), "posts/gone.md")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWrite_Create_OmitsSHAField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/repos/acme/blog/contents/posts/new.md", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotContains(t, body, "sha")
		require.Equal(t, "main", body["branch"])
		require.Equal(t, "add post", body["message"])

		raw, err := base64.StdEncoding.DecodeString(body["content"].(string))
		require.NoError(t, err)
		require.Equal(t, "# New", string(raw))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]any{"sha": "created1", "path": "posts/new.md"},
		})
	})

	file, err := client.Write(context.Background(), "posts/new.md", []byte("# New"), "add post", "")
	require.NoError(t, err)
	require.Equal(t, "created1", file.SHA)
	require.Equal(t, "# New", string(file.Content))
}

func TestWrite_Update_SendsExpectedSHA(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "old-sha", body["sha"])

		json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]any{"sha": "new-sha", "path": "posts/first.md"},
		})
	})

	file, err := client.Write(context.Background(), "posts/first.md", []byte("x"), "update", "old-sha")
	require.NoError(t, err)
	require.Equal(t, "new-sha", file.SHA)
}

func TestWrite_StaleSHA_ReturnsConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "does not match"})
	})

	_, err := client.Write(context.Background(), "posts/first.md", []byte("x"), "update", "stale")
	require.ErrorIs(t, err, store.ErrSHAMismatch)
}

func TestWrite_CreateOverExistingFile_ReturnsConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": `"sha" wasn't supplied`})
	})

	_, err := client.Write(context.Background(), "posts/first.md", []byte("x"), "add", "")
	require.ErrorIs(t, err, store.ErrSHAMismatch)
}

func TestDelete_SendsSHAAndBranch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "abc123", body["sha"])
		require.Equal(t, "main", body["branch"])

		json.NewEncoder(w).Encode(map[string]any{"commit": map[string]any{"sha": "c1"}})
	})

	err := client.Delete(context.Background(), "posts/first.md", "remove post", "abc123")
	require.NoError(t, err)
}

func TestDelete_WithoutSHA_RejectedLocally(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	err := client.Delete(context.Background(), "posts/first.md", "remove", "")
	require.Error(t, err)
	require.False(t, called)
}

func TestList_KeepsOnlyFiles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/blog/contents/posts", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"type": "file", "path": "posts/a.md", "sha": "s1"},
			{"type": "dir", "path": "posts/drafts", "sha": "s2"},
			{"type": "file", "path": "posts/b.md", "sha": "s3"},
		})
	})

	entries, err := client.List(context.Background(), "posts")
	require.NoError(t, err)
	require.Equal(t, []store.Entry{
		{Path: "posts/a.md", SHA: "s1"},
		{Path: "posts/b.md", SHA: "s3"},
	}, entries)
}

func TestList_MissingDirectory_ListsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	})

	entries, err := client.List(context.Background(), "posts")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUnexpectedStatus_ClassifiedAsStoreError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Read(context.Background(), "posts/first.md")
	require.Error(t, err)
	require.False(t, errors.Is(err, store.ErrNotFound))
	require.False(t, errors.Is(err, store.ErrSHAMismatch))
}
