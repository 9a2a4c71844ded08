package handlers

import (
	"context"
	"net/http"

	"github.com/repstack/repstack/internal/content"
	"github.com/repstack/repstack/internal/notify"
	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/server/middleware"
	"github.com/repstack/repstack/internal/server/responses"
)

// ContentService is the slice of the content service the handlers need.
type ContentService interface {
	ListPosts(ctx context.Context) ([]content.Summary, error)
	GetPost(ctx context.Context, slug string) (content.Post, error)
	SavePost(ctx context.Context, post content.Post) (content.Post, error)
	DeletePost(ctx context.Context, slug, sha string) error
	GetPage(ctx context.Context, name string) (content.Page, error)
	SavePage(ctx context.Context, page content.Page) (content.Page, error)
	StoreName() string
}

// PostHandlers serves post CRUD.
type PostHandlers struct {
	svc      ContentService
	notifier notify.Notifier
	adapter  *reperrors.HTTPAdapter
}

// NewPostHandlers creates the post handlers. notifier may be nil.
func NewPostHandlers(svc ContentService, notifier notify.Notifier, adapter *reperrors.HTTPAdapter) *PostHandlers {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &PostHandlers{svc: svc, notifier: notifier, adapter: adapter}
}

// HandleList returns the post index, newest first.
func (h *PostHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPosts(r.Context())
	if err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, responses.PostListResponse{Posts: posts, Count: len(posts)})
}

// HandleGet returns one post with its body and sha.
func (h *PostHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, post)
}

// HandleSave creates or updates the post at the path slug. An empty sha in
// the body means create; a stale sha comes back as 409.
func (h *PostHandlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	var post content.Post
	if err := decodeJSON(w, r, &post); err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	// The path names the resource; a slug in the body is ignored.
	post.Slug = r.PathValue("slug")
	creating := post.SHA == ""

	saved, err := h.svc.SavePost(r.Context(), post)
	if err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	action := notify.ActionUpdated
	status := http.StatusOK
	if creating {
		action = notify.ActionCreated
		status = http.StatusCreated
	}
	h.notifier.ContentChanged(r.Context(), h.event(r.Context(), saved.Slug, notify.KindPost, action))

	_ = writeJSON(w, status, saved)
}

// HandleDelete removes the post at the path slug. The current sha must be
// supplied in the sha query parameter.
func (h *PostHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	sha := r.URL.Query().Get("sha")

	if err := h.svc.DeletePost(r.Context(), slug, sha); err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	h.notifier.ContentChanged(r.Context(), h.event(r.Context(), slug, notify.KindPost, notify.ActionDeleted))

	_ = writeJSON(w, http.StatusOK, responses.DeleteResponse{Slug: slug, Status: "deleted"})
}

func (h *PostHandlers) event(ctx context.Context, slug, kind, action string) notify.Event {
	return notify.Event{
		Slug:   slug,
		Kind:   kind,
		Action: action,
		Actor:  middleware.SubjectFrom(ctx),
		Store:  h.svc.StoreName(),
	}
}
