package handlers

import (
	"net/http"

	"github.com/repstack/repstack/internal/preview"
	"github.com/repstack/repstack/internal/reperrors"
	"github.com/repstack/repstack/internal/server/responses"
)

// PreviewHandlers renders draft bodies for the admin editor.
type PreviewHandlers struct {
	baseHost string
	adapter  *reperrors.HTTPAdapter
}

// NewPreviewHandlers creates the preview handler. baseHost is the public
// blog host used to classify links as internal or external.
func NewPreviewHandlers(baseHost string, adapter *reperrors.HTTPAdapter) *PreviewHandlers {
	return &PreviewHandlers{baseHost: baseHost, adapter: adapter}
}

type previewRequest struct {
	Body string `json:"body"`
}

// HandlePreview renders the submitted Markdown body to HTML and reports the
// links found in it.
func (h *PreviewHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	result, err := preview.Render(req.Body, h.baseHost)
	if err != nil {
		h.adapter.WriteError(w, r, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, responses.PreviewResponse{
		HTML:  result.HTML,
		Links: result.Links,
	})
}
