// Package record defines the per-handle metadata used for moderation and
// access control, and the Store interface its backends implement.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Store.Get when no record exists for a handle.
var ErrNotFound = errors.New("record not found")

var errEmptyLabel = errors.New("label must not be empty")

// ListType is the access-control classification of a handle.
type ListType string

const (
	ListNone  ListType = "None"
	ListWhite ListType = "White"
	ListBlock ListType = "Block"
)

// ParseListType parses a list type name, case-sensitively.
func ParseListType(s string) (ListType, error) {
	switch ListType(s) {
	case ListNone, ListWhite, ListBlock:
		return ListType(s), nil
	}
	return "", fmt.Errorf("invalid list type %q (want None, White or Block)", s)
}

const (
	// LabelNone is the label of a record moderation has not rated.
	LabelNone = "None"

	// LabelAdult blocks every non-admin retrieval of the handle.
	LabelAdult = "adult"

	// DefaultMimeType is written when an upload declares no content type.
	DefaultMimeType = "application/octet-stream"
)

// FileRecord is the metadata stored per handle. JSON names match the
// records written by earlier deployments.
type FileRecord struct {
	ListType  ListType `json:"ListType"`
	Label     string   `json:"Label"`
	TimeStamp int64    `json:"TimeStamp"`
	Liked     bool     `json:"liked"`
	FileName  string   `json:"fileName"`
	FileSize  int64    `json:"fileSize"`
	MimeType  string   `json:"mimeType,omitempty"`
}

// Default returns the record synthesized for a handle with no stored record.
func Default(handle string, now time.Time) *FileRecord {
	return &FileRecord{
		ListType:  ListNone,
		Label:     LabelNone,
		TimeStamp: now.UnixMilli(),
		FileName:  handle,
	}
}

// Blocked reports whether non-admin retrievals of the record must be refused.
func (r *FileRecord) Blocked() bool {
	return r.ListType == ListBlock || r.Label == LabelAdult
}

// Clone returns a copy of r.
func (r *FileRecord) Clone() *FileRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Entry pairs a record with its handle in listings.
type Entry struct {
	Handle string      `json:"handle"`
	Record *FileRecord `json:"record"`
}

// ListOptions controls Store.List pagination. Entries are ordered by handle;
// After excludes every handle lexically <= After.
type ListOptions struct {
	Limit int
	After string
}

// DefaultListLimit applies when ListOptions.Limit is not positive.
const DefaultListLimit = 100

// EffectiveLimit returns the limit to apply.
func (o ListOptions) EffectiveLimit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store persists FileRecords keyed by handle. Put is an upsert and
// concurrent writers to one handle resolve last-writer-wins.
type Store interface {
	// Get returns the record for handle, or ErrNotFound.
	Get(ctx context.Context, handle string) (*FileRecord, error)

	// Put creates or replaces the record for handle.
	Put(ctx context.Context, handle string, rec *FileRecord) error

	// List returns records ordered by handle.
	List(ctx context.Context, opts ListOptions) ([]Entry, error)

	// Healthcheck verifies the backend is reachable.
	Healthcheck(ctx context.Context) error

	Close() error
}
