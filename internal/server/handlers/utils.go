// Package handlers provides the admin API HTTP handlers.
package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/repstack/repstack/internal/logfields"
	"github.com/repstack/repstack/internal/reperrors"
)

// Request bodies are small JSON documents; anything past this is a client
// error, not content.
const maxBodyBytes = 1 << 20

// writeJSON serializes the provided value and writes it with the given
// status code. Encoding goes through an intermediate buffer so a
// serialization failure never sends a partial response.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}

// decodeJSON reads a size-capped JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return reperrors.Wrap(err, reperrors.CategoryValidation, "decode request body").Build()
	}
	return nil
}
