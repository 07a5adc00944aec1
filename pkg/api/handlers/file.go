package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/telebox/internal/logger"
)

// Retriever answers a retrieval of one handle.
type Retriever interface {
	Serve(w http.ResponseWriter, r *http.Request, handle string)
}

// FileHandler handles /file/{id} for every method.
type FileHandler struct {
	retriever Retriever
}

// NewFileHandler creates a file handler.
func NewFileHandler(retriever Retriever) *FileHandler {
	return &FileHandler{retriever: retriever}
}

// Serve passes the handle path segment to the retriever.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "id")
	if lc := logger.FromContext(r.Context()); lc != nil {
		r = r.WithContext(logger.WithContext(r.Context(), lc.WithHandle(handle)))
	}
	h.retriever.Serve(w, r, handle)
}
