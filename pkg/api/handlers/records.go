package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/pkg/api/middleware"
	"github.com/marmos91/telebox/pkg/record"
)

// maxListLimit caps GET /api/records page sizes.
const maxListLimit = 1000

var timeNow = time.Now

// RecordsHandler serves the admin records API.
type RecordsHandler struct {
	store record.Store
}

// NewRecordsHandler creates a records handler. A nil store answers 503.
func NewRecordsHandler(store record.Store) *RecordsHandler {
	return &RecordsHandler{store: store}
}

// List handles GET /api/records?limit=&after=.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	opts := record.ListOptions{After: r.URL.Query().Get("after")}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxListLimit {
			BadRequest(w, "limit must be between 1 and 1000")
			return
		}
		opts.Limit = n
	}

	entries, err := h.store.List(r.Context(), opts)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to list records", logger.Err(err))
		InternalServerError(w, "Failed to list records")
		return
	}
	if entries == nil {
		entries = []record.Entry{}
	}
	writeJSON(w, http.StatusOK, okResponse(entries))
}

// Get handles GET /api/records/{handle}.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	handle := chi.URLParam(r, "handle")
	rec, ok := h.load(w, r, handle)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, okResponse(record.Entry{Handle: handle, Record: rec}))
}

// Update handles PATCH /api/records/{handle} with a record.Update body.
// Unknown handles get a default record first, as on first retrieval.
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	var u record.Update
	if !decodeJSONBody(w, r, &u) {
		return
	}
	if u.Empty() {
		BadRequest(w, "Nothing to update")
		return
	}
	if err := u.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	handle := chi.URLParam(r, "handle")
	rec, err := h.store.Get(r.Context(), handle)
	if errors.Is(err, record.ErrNotFound) {
		rec = record.Default(handle, timeNow())
	} else if err != nil {
		logger.ErrorCtx(r.Context(), "Failed to get record", logger.Handle(handle), logger.Err(err))
		InternalServerError(w, "Failed to get record")
		return
	}

	updated := u.Apply(rec)
	if err := h.store.Put(r.Context(), handle, updated); err != nil {
		logger.ErrorCtx(r.Context(), "Failed to save record", logger.Handle(handle), logger.Err(err))
		InternalServerError(w, "Failed to save record")
		return
	}

	admin := ""
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		admin = claims.Username
	}
	logger.InfoCtx(r.Context(), "Record updated",
		logger.Handle(handle),
		logger.KeyListType, updated.ListType,
		logger.KeyLabel, updated.Label,
		"admin", admin,
	)
	writeJSON(w, http.StatusOK, okResponse(record.Entry{Handle: handle, Record: updated}))
}

func (h *RecordsHandler) available(w http.ResponseWriter) bool {
	if h.store == nil {
		ServiceUnavailable(w, "Record store disabled")
		return false
	}
	return true
}

func (h *RecordsHandler) load(w http.ResponseWriter, r *http.Request, handle string) (*record.FileRecord, bool) {
	rec, err := h.store.Get(r.Context(), handle)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			NotFound(w, "Record not found")
			return nil, false
		}
		logger.ErrorCtx(r.Context(), "Failed to get record", logger.Handle(handle), logger.Err(err))
		InternalServerError(w, "Failed to get record")
		return nil, false
	}
	return rec, true
}
