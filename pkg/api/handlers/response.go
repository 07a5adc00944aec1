package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the envelope of health and admin API responses.
//
// Status is "healthy", "unhealthy", "ok" or "error". The gateway routes
// (/upload, /file) keep their own bare formats.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// ErrorBody is the {"error": msg} body of the upload endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}

// writeJSON writes data with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are gone; nothing left but a best-effort body.
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func healthyResponse(data any) Response {
	return Response{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

func unhealthyResponse(errMsg string) Response {
	return Response{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: errMsg}
}

func unhealthyResponseWithData(data any) Response {
	return Response{Status: "unhealthy", Timestamp: time.Now().UTC(), Data: data}
}

func okResponse(data any) Response {
	return Response{Status: "ok", Timestamp: time.Now().UTC(), Data: data}
}

func errorResponse(status int, w http.ResponseWriter, msg string) {
	writeJSON(w, status, Response{Status: "error", Timestamp: time.Now().UTC(), Error: msg})
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	errorResponse(http.StatusBadRequest, w, msg)
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, msg string) {
	errorResponse(http.StatusUnauthorized, w, msg)
}

// Forbidden writes a 403 error response.
func Forbidden(w http.ResponseWriter, msg string) {
	errorResponse(http.StatusForbidden, w, msg)
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	errorResponse(http.StatusNotFound, w, msg)
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, msg string) {
	errorResponse(http.StatusServiceUnavailable, w, msg)
}

// InternalServerError writes a 500 error response.
func InternalServerError(w http.ResponseWriter, msg string) {
	errorResponse(http.StatusInternalServerError, w, msg)
}

// decodeJSONBody decodes a JSON request body into v. On failure a 400 is
// written and false returned.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}
