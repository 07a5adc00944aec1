package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/internal/telemetry"
	"github.com/marmos91/telebox/pkg/moderation"
	"github.com/marmos91/telebox/pkg/record"
)

// State names the policy state that ended a retrieval.
type State string

const (
	StateAdminBypass       State = "admin_bypass"
	StateNoStore           State = "no_metadata_store"
	StateStoreUnavailable  State = "store_unavailable"
	StateWhitelisted       State = "whitelist_bypass"
	StateBlocked           State = "blocked"
	StateWhitelistMode     State = "global_whitelist_mode"
	StateModerationBlocked State = "moderation_blocked"
	StateServe             State = "persist_and_serve"

	// StateUpstreamStatus and StateFetchFailed end a retrieval before the
	// policy runs.
	StateUpstreamStatus State = "upstream_status"
	StateFetchFailed    State = "fetch_failed"
)

// Decision is the outcome of Policy.Decide. An empty Redirect means serve.
type Decision struct {
	State    State
	Redirect string
}

// Serve reports whether the fetched bytes go to the caller.
func (d Decision) Serve() bool {
	return d.Redirect == ""
}

// Request is what the policy needs to know about one successful fetch.
type Request struct {
	Handle      string
	Referer     string
	Origin      string
	ContentType string

	// FileURL is the URL the bytes were fetched from. Moderation rates it.
	FileURL string
}

// Policy decides whether a fetched file is served or redirected, and keeps
// the handle's record up to date along the way.
type Policy struct {
	store             record.Store
	storeType         string
	moderator         moderation.Moderator
	moderationTimeout time.Duration
	blockImageURL     string
	whitelist         atomic.Bool
	metrics           Metrics
	now               func() time.Time
}

// NewPolicy creates a policy from the store, moderation and clock fields of
// opts. Without a store every request is served, without a moderator
// nothing is rated.
func NewPolicy(s Settings, opts Options) *Policy {
	s = s.withDefaults()
	p := &Policy{
		store:             opts.Store,
		storeType:         opts.StoreType,
		moderator:         opts.Moderator,
		moderationTimeout: s.ModerationTimeout,
		blockImageURL:     s.BlockImageURL,
		metrics:           opts.Metrics,
		now:               opts.Now,
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.whitelist.Store(s.WhitelistMode)
	return p
}

// SetWhitelistMode switches global whitelist mode at runtime.
func (p *Policy) SetWhitelistMode(on bool) {
	p.whitelist.Store(on)
}

// WhitelistMode reports whether global whitelist mode is on.
func (p *Policy) WhitelistMode() bool {
	return p.whitelist.Load()
}

// Decide runs the policy states in order and returns the first terminal one.
// Store and moderation failures never turn into errors: they are logged and
// the file is served.
func (p *Policy) Decide(ctx context.Context, req Request) Decision {
	if req.Referer != "" && strings.Contains(req.Referer, req.Origin+adminPathPrefix) {
		return Decision{State: StateAdminBypass}
	}

	if p.store == nil {
		return Decision{State: StateNoStore}
	}

	rec, ok := p.loadOrInit(ctx, req.Handle)
	if !ok {
		return Decision{State: StateStoreUnavailable}
	}

	if rec.ListType == record.ListWhite {
		return Decision{State: StateWhitelisted}
	}

	if rec.Blocked() {
		target := req.Origin + blockPagePath
		if req.Referer != "" {
			target = p.blockImageURL
		}
		return Decision{State: StateBlocked, Redirect: target}
	}

	if p.whitelist.Load() {
		return Decision{State: StateWhitelistMode, Redirect: req.Origin + whitelistPagePath}
	}

	if p.moderator != nil && strings.HasPrefix(req.ContentType, "image/") {
		if p.moderate(ctx, req.FileURL, rec) {
			p.put(ctx, req.Handle, rec)
			return Decision{State: StateModerationBlocked, Redirect: req.Origin + blockPagePath}
		}
	}

	p.put(ctx, req.Handle, rec)
	return Decision{State: StateServe}
}

// loadOrInit returns the stored record, or persists and returns the default
// one when none exists. ok is false when the store failed.
func (p *Policy) loadOrInit(ctx context.Context, handle string) (*record.FileRecord, bool) {
	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanStoreGet, p.storeType, handle)
	defer span.End()

	rec, err := p.store.Get(ctx, handle)
	if err == nil {
		return rec, true
	}
	if !errors.Is(err, record.ErrNotFound) {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "Record store read failed, serving without policy", logger.Handle(handle), logger.Err(err))
		return nil, false
	}

	rec = record.Default(handle, p.now())
	p.put(ctx, handle, rec)
	return rec, true
}

// moderate rates fileURL and applies a returned label to rec. It reports
// whether the label blocks the handle.
func (p *Policy) moderate(ctx context.Context, fileURL string, rec *record.FileRecord) bool {
	out := moderation.Check(ctx, p.moderator, p.moderationTimeout, fileURL)
	switch {
	case out.Err != nil:
		p.recordModeration("error")
		return false
	case !out.Labeled:
		p.recordModeration("unlabeled")
		return false
	}

	p.recordModeration(out.Label)
	rec.Label = out.Label
	logger.DebugCtx(ctx, "Moderation label applied", logger.KeyLabel, out.Label)
	return out.Label == record.LabelAdult
}

func (p *Policy) put(ctx context.Context, handle string, rec *record.FileRecord) {
	ctx, span := telemetry.StartStoreSpan(ctx, telemetry.SpanStorePut, p.storeType, handle)
	defer span.End()

	if err := p.store.Put(ctx, handle, rec); err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "Failed to save record", logger.Handle(handle), logger.Err(err))
	}
}

func (p *Policy) recordModeration(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordModeration(outcome)
	}
}
