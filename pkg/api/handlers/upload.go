package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/upload"
)

// uploadField is the multipart field carrying the file.
const uploadField = "file"

// Uploader stores one file upstream.
type Uploader interface {
	Upload(ctx context.Context, f *upload.File) (*upload.Result, error)
}

// UploadHandler handles POST /upload.
type UploadHandler struct {
	uploader Uploader
	maxSize  int64
}

// NewUploadHandler creates an upload handler accepting bodies up to maxSize
// bytes. A non-positive maxSize disables the limit.
func NewUploadHandler(uploader Uploader, maxSize int64) *UploadHandler {
	return &UploadHandler{uploader: uploader, maxSize: maxSize}
}

// srcEntry is one element of the upload response array.
type srcEntry struct {
	Src string `json:"src"`
}

// Upload reads the "file" field and answers [{"src": "/file/<handle>"}].
// Every failure is a 500 with {"error": msg}, except an oversized body (413).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	}

	f, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorBody{Error: "File too large"})
			return
		}
		logger.WarnCtx(r.Context(), "Rejected upload request", logger.Err(err))
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: err.Error()})
		return
	}

	res, err := h.uploader.Upload(r.Context(), f)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, []srcEntry{{Src: res.Src}})
}

// readUpload extracts the file field. A request without one yields
// upload.ErrNoFile.
func readUpload(r *http.Request) (*upload.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, upload.ErrNoFile
		}
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, upload.ErrNoFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		content, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		return &upload.File{
			Name:     part.FileName(),
			MimeType: part.Header.Get("Content-Type"),
			Content:  content,
		}, nil
	}
}
