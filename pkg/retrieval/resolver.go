// Package retrieval turns a handle back into file bytes: it resolves the
// handle to an upstream URL, proxies the fetch, and applies the access and
// moderation policy to successful responses.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/telebox/internal/logger"
	"github.com/marmos91/telebox/internal/telemetry"
	"github.com/marmos91/telebox/pkg/bufpool"
	"github.com/marmos91/telebox/pkg/moderation"
	"github.com/marmos91/telebox/pkg/record"
	"github.com/marmos91/telebox/pkg/telegram"
)

// Source tells where a handle was resolved.
type Source string

const (
	SourceTelegram Source = "telegram"
	SourceLegacy   Source = "legacy"
)

// Metrics observes retrievals. A nil Metrics is valid.
type Metrics interface {
	RecordDecision(decision string)
	RecordResolve(source string)
	RecordModeration(outcome string)
}

// Options carries the resolver's collaborators. Every field is optional.
type Options struct {
	// Paths resolves file identifiers with getFile. Leave nil when no bot
	// token is configured: every handle then goes to the legacy host.
	Paths telegram.PathResolver

	// FileURL turns a getFile path into a download URL.
	FileURL func(path string) string

	Store     record.Store
	StoreType string

	// Moderator is nil when no moderation key is configured.
	Moderator moderation.Moderator

	// HTTPClient performs the byte fetch. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	Metrics Metrics
	Now     func() time.Time
}

// Resolver serves retrievals.
type Resolver struct {
	*Policy

	settings Settings
	paths    telegram.PathResolver
	fileURL  func(path string) string
	http     *http.Client
	metrics  Metrics
}

// New creates a resolver.
func New(s Settings, opts Options) *Resolver {
	s = s.withDefaults()
	r := &Resolver{
		Policy:   NewPolicy(s, opts),
		settings: s,
		paths:    opts.Paths,
		fileURL:  opts.FileURL,
		http:     opts.HTTPClient,
		metrics:  opts.Metrics,
	}
	if r.http == nil {
		r.http = http.DefaultClient
	}
	if r.paths == nil || r.fileURL == nil {
		r.paths = nil
	}
	return r
}

// Resolve returns the URL to fetch handle from. reqURL is the incoming
// request URL, whose path and query are replayed against the legacy host
// when no candidate resolves.
func (r *Resolver) Resolve(ctx context.Context, handle string, reqURL *url.URL) (string, Source) {
	if r.paths != nil {
		for _, id := range Candidates(handle) {
			path, err := r.paths.GetFilePath(ctx, id)
			if err != nil {
				logger.WarnCtx(ctx, "Error fetching file path", logger.KeyCandidate, id, logger.Err(err))
				continue
			}
			if path != "" {
				logger.DebugCtx(ctx, "Handle resolved", logger.KeyCandidate, id, logger.KeyFilePath, path)
				return r.fileURL(path), SourceTelegram
			}
		}
	}

	u := r.settings.LegacyBaseURL + reqURL.EscapedPath()
	if reqURL.RawQuery != "" {
		u += "?" + reqURL.RawQuery
	}
	return u, SourceLegacy
}

// Serve answers a retrieval of handle. It writes the upstream response, a
// 302 redirect chosen by the policy, or a 502 when the fetch failed.
func (r *Resolver) Serve(w http.ResponseWriter, req *http.Request, handle string) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(req.Context(), telemetry.SpanRetrieve)
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.Handle(handle))

	fileURL, source := r.Resolve(ctx, handle, req.URL)
	r.recordResolve(source)
	telemetry.SetAttributes(ctx, telemetry.Source(string(source)))

	resp, err := r.fetch(ctx, req, fileURL)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Upstream fetch failed", logger.Handle(handle), logger.KeySource, source, logger.Err(err))
		r.finish(ctx, handle, Decision{State: StateFetchFailed}, start)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.finish(ctx, handle, Decision{State: StateUpstreamStatus}, start, logger.Status(resp.StatusCode))
		copyResponse(ctx, w, resp)
		return
	}

	d := r.Decide(ctx, Request{
		Handle:      handle,
		Referer:     req.Header.Get("Referer"),
		Origin:      Origin(req, r.settings.PublicURL),
		ContentType: resp.Header.Get("Content-Type"),
		FileURL:     fileURL,
	})
	r.finish(ctx, handle, d, start)

	if !d.Serve() {
		w.Header().Set("Location", d.Redirect)
		w.WriteHeader(http.StatusFound)
		return
	}
	copyResponse(ctx, w, resp)
}

func (r *Resolver) finish(ctx context.Context, handle string, d Decision, start time.Time, attrs ...any) {
	telemetry.SetAttributes(ctx, telemetry.Decision(string(d.State)))
	if r.metrics != nil {
		r.metrics.RecordDecision(string(d.State))
	}
	args := append([]any{logger.Handle(handle), logger.KeyDecision, d.State, logger.DurationMs(start)}, attrs...)
	logger.DebugCtx(ctx, "Retrieval decided", args...)
}

func (r *Resolver) recordResolve(source Source) {
	if r.metrics != nil {
		r.metrics.RecordResolve(string(source))
	}
}

// fetch replays the incoming request against fileURL.
func (r *Resolver) fetch(ctx context.Context, in *http.Request, fileURL string) (*http.Response, error) {
	ctx, span := telemetry.StartClientSpan(ctx, telemetry.SpanFetch)
	defer span.End()

	var body io.Reader
	if in.Body != nil && in.Body != http.NoBody {
		body = in.Body
	}
	out, err := http.NewRequestWithContext(ctx, in.Method, fileURL, body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = in.ContentLength
	out.Header = in.Header.Clone()
	removeHopByHop(out.Header)

	resp, err := r.http.Do(out)
	if err != nil {
		return nil, unwrapURLError(err)
	}
	telemetry.SetAttributes(ctx, telemetry.MimeType(resp.Header.Get("Content-Type")))
	return resp, nil
}

// hopHeaders are connection-scoped and never forwarded (RFC 9110 7.6.1).
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func removeHopByHop(h http.Header) {
	for _, f := range h.Values("Connection") {
		for _, name := range strings.Split(f, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

func copyResponse(ctx context.Context, w http.ResponseWriter, resp *http.Response) {
	h := w.Header()
	for k, vv := range resp.Header {
		for _, v := range vv {
			h.Add(k, v)
		}
	}
	removeHopByHop(h)
	w.WriteHeader(resp.StatusCode)

	if _, err := bufpool.Copy(w, resp.Body); err != nil {
		logger.DebugCtx(ctx, "Response copy aborted", logger.Err(err))
	}
}

// unwrapURLError drops the request URL, which may carry the bot token.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
