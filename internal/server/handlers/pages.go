package handlers

import (
	"net/http"

	"github.com/repstack/repstack/internal/content"
	"github.com/repstack/repstack/internal/notify"
	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/server/middleware"
)

// PageHandlers serves standalone YAML documents such as the about profile.
type PageHandlers struct {
	svc      ContentService
	notifier notify.Notifier
	adapter  *reperrors.HTTPAdapter
}

// NewPageHandlers creates the page handlers. notifier may be nil.
func NewPageHandlers(svc ContentService, notifier notify.Notifier, adapter *reperrors.HTTPAdapter) *PageHandlers {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &PageHandlers{svc: svc, notifier: notifier, adapter: adapter}
}

// HandleGet returns one page as an ordered field list.
func (h *PageHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.GetPage(r.Context(), r.PathValue("name"))
	if err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, page)
}

// HandleSave writes a page back. An empty sha means create.
func (h *PageHandlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	var page content.Page
	if err := decodeJSON(w, r, &page); err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	page.Name = r.PathValue("name")
	creating := page.SHA == ""

	saved, err := h.svc.SavePage(r.Context(), page)
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
	h.notifier.ContentChanged(r.Context(), notify.Event{
		Slug:   saved.Name,
		Kind:   notify.KindPage,
		Action: action,
		Actor:  middleware.SubjectFrom(r.Context()),
		Store:  h.svc.StoreName(),
	})

	_ = writeJSON(w, status, saved)
}
