package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use them consistently so
// upload and retrieval logs can be queried together.
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeyRequestID = "request_id"
	KeyClientIP  = "client_ip"

	// Gateway
	KeyHandle    = "handle"     // Client-facing file handle
	KeyFileID    = "file_id"    // Upstream file identifier
	KeyFilePath  = "file_path"  // Upstream path returned by getFile
	KeyMethod    = "method"     // Upstream send method (sendPhoto, ...)
	KeyMimeType  = "mime_type"  // Declared content type
	KeyFilename  = "filename"   // Original display name
	KeySize      = "size"       // Payload size in bytes
	KeyStatus    = "status"     // HTTP status code
	KeyDecision  = "decision"   // Policy decision (serve, redirect, ...)
	KeyState     = "state"      // Policy state name
	KeyLabel     = "label"      // Moderation label
	KeyListType  = "list_type"  // Record access classification
	KeyURL       = "url"        // Outbound URL (token-free)
	KeyCandidate = "candidate"  // Resolution candidate
	KeySource    = "source"     // Resolution source: telegram, legacy, cache

	// Retry
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
	KeyDelay      = "delay"

	// Storage
	KeyStoreType  = "store_type"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyComponent  = "component"
)

// Err returns a slog.Attr for an error, or an empty attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Handle returns a slog.Attr for a file handle.
func Handle(h string) slog.Attr {
	return slog.String(KeyHandle, h)
}

// Method returns a slog.Attr for an upstream send method.
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the retry budget.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Delay returns a slog.Attr for a backoff delay.
func Delay(d time.Duration) slog.Attr {
	return slog.Duration(KeyDelay, d)
}

// Status returns a slog.Attr for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StoreType returns a slog.Attr for a record store backend.
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// DurationMs returns a slog.Attr with milliseconds elapsed since start.
func DurationMs(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}
