// Package githubstore implements the content store on top of the GitHub
// contents API. The blog repository is the database: every write is a
// commit, and GitHub's per-file blob sha doubles as the optimistic
// concurrency token.
package githubstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/store"
)

// Options configures the client. Owner, Repo and Token are required.
type Options struct {
	Owner          string
	Repo           string
	Branch         string
	Token          string
	APIURL         string
	CommitterName  string
	CommitterEmail string
}

// Client talks to one repository's contents API.
type Client struct {
	opts       Options
	httpClient *http.Client
	apiURL     string
}

// New validates options and builds a client.
func New(opts Options) (*Client, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, reperrors.ConfigError("github store requires owner and repository").Build()
	}
	if opts.Token == "" {
		return nil, reperrors.ConfigError("github store requires token authentication").Build()
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
	}, nil
}

// Name identifies the store in logs and metrics.
func (c *Client) Name() string { return "github" }

type contentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
	Path     string `json:"path"`
}

// Read fetches one file at the configured branch.
func (c *Client) Read(ctx context.Context, filePath string) (store.File, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.contentsEndpoint(filePath), c.refQuery(), nil)
	if err != nil {
		return store.File{}, err
	}

	var body contentsResponse
	if err := c.do(req, filePath, "-", &body); err != nil {
		return store.File{}, err
	}
	if body.Type != "file" {
		return store.File{}, reperrors.StoreError("path is not a file").WithContext("path", filePath).Build()
	}

	// The API base64-encodes content in newline-separated chunks.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return store.File{}, reperrors.Wrap(err, reperrors.CategoryStore, "decode file content").WithContext("path", filePath).Build()
	}
	return store.File{Path: filePath, Content: raw, SHA: body.SHA}, nil
}

type writeRequest struct {
	Message   string     `json:"message"`
	Content   string     `json:"content"`
	SHA       string     `json:"sha,omitempty"`
	Branch    string     `json:"branch,omitempty"`
	Committer *committer `json:"committer,omitempty"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type writeResponse struct {
	Content struct {
		SHA  string `json:"sha"`
		Path string `json:"path"`
	} `json:"content"`
}

// Write creates or updates a file. An empty expectedSHA creates; the API
// rejects creation over an existing file, which surfaces as ErrSHAMismatch.
func (c *Client) Write(ctx context.Context, filePath string, content []byte, message, expectedSHA string) (store.File, error) {
	body := writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     expectedSHA,
		Branch:  c.opts.Branch,
	}
	if c.opts.CommitterName != "" {
		body.Committer = &committer{Name: c.opts.CommitterName, Email: c.opts.CommitterEmail}
	}

	req, err := c.newRequest(ctx, http.MethodPut, c.contentsEndpoint(filePath), nil, body)
	if err != nil {
		return store.File{}, err
	}

	var out writeResponse
	if err := c.do(req, filePath, expectedSHA, &out); err != nil {
		return store.File{}, err
	}
	return store.File{Path: filePath, Content: content, SHA: out.Content.SHA}, nil
}

type deleteRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

// Delete removes a file. The current content hash is mandatory; the API has
// no unconditional delete.
func (c *Client) Delete(ctx context.Context, filePath, message, expectedSHA string) error {
	if expectedSHA == "" {
		return reperrors.ValidationError("delete requires the current content hash").WithContext("path", filePath).Build()
	}

	body := deleteRequest{Message: message, SHA: expectedSHA, Branch: c.opts.Branch}
	req, err := c.newRequest(ctx, http.MethodDelete, c.contentsEndpoint(filePath), nil, body)
	if err != nil {
		return err
	}
	return c.do(req, filePath, expectedSHA, nil)
}

type listItem struct {
	Type string `json:"type"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// List returns the files directly under dir. A directory that does not
// exist yet lists as empty rather than failing; a fresh blog has no posts.
func (c *Client) List(ctx context.Context, dir string) ([]store.Entry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.contentsEndpoint(dir), c.refQuery(), nil)
	if err != nil {
		return nil, err
	}

	var items []listItem
	if err := c.do(req, dir, "-", &items); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]store.Entry, 0, len(items))
	for _, it := range items {
		if it.Type != "file" {
			continue
		}
		entries = append(entries, store.Entry{Path: it.Path, SHA: it.SHA})
	}
	return entries, nil
}

func (c *Client) contentsEndpoint(filePath string) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s", c.opts.Owner, c.opts.Repo, filePath)
}

func (c *Client) refQuery() url.Values {
	return url.Values{"ref": {c.opts.Branch}}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, endpoint)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "repstack/1.0")
	return req, nil
}

// do executes the request and decodes the response. expectedSHA
// disambiguates the API's 422: during create ("" sha) it means the file
// already exists; "-" marks operations where 422 is a plain store error.
func (c *Client) do(req *http.Request, filePath, expectedSHA string, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reperrors.Wrap(err, reperrors.CategoryNetwork, "github api unreachable").WithContext("path", filePath).Build()
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, filePath, expectedSHA); err != nil {
		return err
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return reperrors.Wrap(err, reperrors.CategoryStore, "decode github response").WithContext("path", filePath).Build()
		}
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response, filePath, expectedSHA string) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound.WithContext("path", filePath)
	case resp.StatusCode == http.StatusConflict:
		return store.ErrSHAMismatch.WithContext("path", filePath)
	case resp.StatusCode == http.StatusUnprocessableEntity && expectedSHA == "":
		return store.ErrSHAMismatch.WithContext("path", filePath)
	default:
		return reperrors.StoreError("github api error").
			WithContext("status", resp.Status).
			WithContext("path", filePath).Build()
	}
}
