package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for gateway spans.
const (
	AttrHandle    = "telebox.handle"
	AttrFileID    = "telebox.file_id"
	AttrMethod    = "telegram.method"
	AttrAttempt   = "telegram.attempt"
	AttrMimeType  = "telebox.mime_type"
	AttrSize      = "telebox.size"
	AttrDecision  = "telebox.decision"
	AttrSource    = "telebox.source"
	AttrLabel     = "moderation.label"
	AttrStoreType = "store.type"
	AttrCacheHit  = "cache.hit"
)

// Span names.
const (
	SpanUpload       = "upload"
	SpanRetrieve     = "retrieve"
	SpanTelegramSend = "telegram.send"
	SpanTelegramFile = "telegram.getFile"
	SpanFetch        = "upstream.fetch"
	SpanModerate     = "moderation.rate"
	SpanStoreGet     = "store.get"
	SpanStorePut     = "store.put"
)

func Handle(h string) attribute.KeyValue { return attribute.String(AttrHandle, h) }
func FileID(id string) attribute.KeyValue { return attribute.String(AttrFileID, id) }
func Method(m string) attribute.KeyValue { return attribute.String(AttrMethod, m) }
func Attempt(n int) attribute.KeyValue { return attribute.Int(AttrAttempt, n) }
func MimeType(m string) attribute.KeyValue { return attribute.String(AttrMimeType, m) }
func Size(n int64) attribute.KeyValue { return attribute.Int64(AttrSize, n) }
func Decision(d string) attribute.KeyValue { return attribute.String(AttrDecision, d) }
func Source(s string) attribute.KeyValue { return attribute.String(AttrSource, s) }
func Label(l string) attribute.KeyValue { return attribute.String(AttrLabel, l) }
func StoreType(t string) attribute.KeyValue { return attribute.String(AttrStoreType, t) }
func CacheHit(hit bool) attribute.KeyValue { return attribute.Bool(AttrCacheHit, hit) }

// StartClientSpan starts a client-kind span for an outbound call.
func StartClientSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// StartStoreSpan starts a span for a record store operation.
func StartStoreSpan(ctx context.Context, name, storeType, handle string) (context.Context, trace.Span) {
	return StartSpan(ctx, name, trace.WithAttributes(StoreType(storeType), Handle(handle)))
}
