package content

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/repstack/repstack/internal/frontmatter"
	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/miniyaml"
	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/store"
)

// Service reads and writes typed content through a store. It owns the
// repository layout (where posts and pages live) and the codec plumbing;
// callers only ever see Post and Page values.
type Service struct {
	store    store.Store
	postsDir string
	pagesDir string
}

// NewService builds a service. Empty dirs fall back to the conventional
// content/posts and content/pages layout.
func NewService(st store.Store, postsDir, pagesDir string) *Service {
	if postsDir == "" {
		postsDir = "content/posts"
	}
	if pagesDir == "" {
		pagesDir = "content/pages"
	}
	return &Service{store: st, postsDir: postsDir, pagesDir: pagesDir}
}

// StoreName identifies the backing store for logs and change events.
func (s *Service) StoreName() string { return s.store.Name() }

// Slugs double as file names, so they are restricted to dash-joined
// lowercase alphanumerics. Anything else is rejected before it can reach
// a store path.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func validSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return reperrors.ValidationError("invalid slug").WithContext("slug", slug).Build()
	}
	return nil
}

// ListPosts returns listing summaries for every post, newest first.
// Posts that cannot be read are skipped with a warning; one bad file must
// not take down the index.
func (s *Service) ListPosts(ctx context.Context) ([]Summary, error) {
	entries, err := s.store.List(ctx, s.postsDir)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Path, ".md") {
			continue
		}
		file, err := s.store.Read(ctx, entry.Path)
		if err != nil {
			slog.Warn("skipping unreadable post", logfields.File(entry.Path), logfields.Error(err))
			continue
		}
		slug := strings.TrimSuffix(path.Base(entry.Path), ".md")
		post := PostFromDocument(slug, frontmatter.Split(string(file.Content)), file.SHA)
		summaries = append(summaries, post.ToSummary())
	}

	// Dates are authored as YYYY-MM-DD, so lexicographic order is
	// chronological.
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Date != summaries[j].Date {
			return summaries[i].Date > summaries[j].Date
		}
		return summaries[i].Slug < summaries[j].Slug
	})
	return summaries, nil
}

// GetPost loads one post by slug.
func (s *Service) GetPost(ctx context.Context, slug string) (Post, error) {
	if err := validSlug(slug); err != nil {
		return Post{}, err
	}
	file, err := s.store.Read(ctx, s.postPath(slug))
	if err != nil {
		return Post{}, err
	}
	return PostFromDocument(slug, frontmatter.Split(string(file.Content)), file.SHA), nil
}

// SavePost persists a post, assigning slug, uid and creation date when
// missing. An empty SHA creates the file; otherwise the SHA must come from
// the read that produced the edit, and a stale one surfaces as
// store.ErrSHAMismatch.
func (s *Service) SavePost(ctx context.Context, post Post) (Post, error) {
	if strings.TrimSpace(post.Title) == "" {
		return Post{}, reperrors.ValidationError("post title is required").Build()
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
		if post.Slug == "" {
			return Post{}, reperrors.ValidationError("title yields no usable slug").WithContext("title", post.Title).Build()
		}
	}
	if err := validSlug(post.Slug); err != nil {
		return Post{}, err
	}
	if strings.TrimSpace(post.UID) == "" {
		post.UID = uuid.NewString()
	}
	creating := post.SHA == ""
	if creating && post.Date == "" {
		post.Date = time.Now().UTC().Format("2006-01-02")
	}

	doc := post.Document()
	text := frontmatter.Compose(doc.Meta, doc.Body)
	message := fmt.Sprintf("posts: update %s", post.Slug)
	if creating {
		message = fmt.Sprintf("posts: create %s", post.Slug)
	}

	file, err := s.store.Write(ctx, s.postPath(post.Slug), []byte(text), message, post.SHA)
	if err != nil {
		return Post{}, err
	}
	post.SHA = file.SHA

	slog.Info("post saved", logfields.Slug(post.Slug), logfields.UID(post.UID), logfields.SHA(post.SHA), logfields.Store(s.store.Name()))
	return post, nil
}

// DeletePost removes a post. The SHA from the last read is required.
func (s *Service) DeletePost(ctx context.Context, slug, sha string) error {
	if err := validSlug(slug); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.postPath(slug), fmt.Sprintf("posts: delete %s", slug), sha); err != nil {
		return err
	}
	slog.Info("post deleted", logfields.Slug(slug), logfields.Store(s.store.Name()))
	return nil
}

// GetPage loads a standalone YAML-subset document by name.
func (s *Service) GetPage(ctx context.Context, name string) (Page, error) {
	if err := validSlug(name); err != nil {
		return Page{}, err
	}
	file, err := s.store.Read(ctx, s.pagePath(name))
	if err != nil {
		return Page{}, err
	}
	return Page{Name: name, Data: miniyaml.Parse(string(file.Content)), SHA: file.SHA}, nil
}

// SavePage persists a page's value tree.
func (s *Service) SavePage(ctx context.Context, page Page) (Page, error) {
	if err := validSlug(page.Name); err != nil {
		return Page{}, err
	}

	message := fmt.Sprintf("pages: update %s", page.Name)
	if page.SHA == "" {
		message = fmt.Sprintf("pages: create %s", page.Name)
	}

	file, err := s.store.Write(ctx, s.pagePath(page.Name), []byte(miniyaml.Serialize(page.Data)), message, page.SHA)
	if err != nil {
		return Page{}, err
	}
	page.SHA = file.SHA

	slog.Info("page saved", logfields.Slug(page.Name), logfields.SHA(page.SHA), logfields.Store(s.store.Name()))
	return page, nil
}

func (s *Service) postPath(slug string) string {
	return path.Join(s.postsDir, slug+".md")
}

func (s *Service) pagePath(name string) string {
	return path.Join(s.pagesDir, name+".yaml")
}
