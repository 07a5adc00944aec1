// Package prometheus implements the gateway metric sets on
// prometheus/client_golang. Import it for its side effect:
//
//	import _ "github.com/marmos91/telebox/pkg/metrics/prometheus"
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/telebox/pkg/metrics"
	"github.com/marmos91/telebox/pkg/retrieval"
	"github.com/marmos91/telebox/pkg/telegram"
	"github.com/marmos91/telebox/pkg/upload"
)

func init() {
	metrics.RegisterConstructors(
		func() upload.Metrics { return NewUploadMetrics(metrics.GetRegistry()) },
		func() retrieval.Metrics { return NewRetrievalMetrics(metrics.GetRegistry()) },
		func() telegram.CacheMetrics { return NewPathCacheMetrics(metrics.GetRegistry()) },
	)
}

// uploadMetrics is the Prometheus implementation of upload.Metrics.
type uploadMetrics struct {
	uploads  *prometheus.CounterVec
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewUploadMetrics registers the upload metric set on reg.
func NewUploadMetrics(reg prometheus.Registerer) upload.Metrics {
	return &uploadMetrics{
		uploads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebox_uploads_total",
				Help: "Completed uploads by final send method and status",
			},
			[]string{"method", "status"},
		),
		attempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebox_upload_attempts_total",
				Help: "Individual Bot API send attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		duration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "telebox_upload_duration_milliseconds",
				Help: "End-to-end upload duration in milliseconds, backoff included",
				Buckets: []float64{
					50,    // small documents
					100,   // 100ms
					250,   // 250ms
					500,   // 500ms
					1000,  // 1s - one backoff
					3000,  // 3s - both backoffs
					10000, // 10s - large media
					30000, // 30s
				},
			},
		),
	}
}

func (m *uploadMetrics) ObserveAttempt(method, outcome string) {
	m.attempts.WithLabelValues(method, outcome).Inc()
}

func (m *uploadMetrics) ObserveUpload(method, status string, d time.Duration) {
	m.uploads.WithLabelValues(method, status).Inc()
	m.duration.Observe(float64(d.Microseconds()) / 1000.0)
}

// retrievalMetrics is the Prometheus implementation of retrieval.Metrics.
type retrievalMetrics struct {
	decisions  *prometheus.CounterVec
	resolves   *prometheus.CounterVec
	moderation *prometheus.CounterVec
}

// NewRetrievalMetrics registers the retrieval metric set on reg.
func NewRetrievalMetrics(reg prometheus.Registerer) retrieval.Metrics {
	return &retrievalMetrics{
		decisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebox_retrievals_total",
				Help: "Retrievals by policy decision",
			},
			[]string{"decision"},
		),
		resolves: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebox_resolve_total",
				Help: "Handle resolutions by source (telegram or legacy)",
			},
			[]string{"source"},
		),
		moderation: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebox_moderation_total",
				Help: "Moderation calls by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *retrievalMetrics) RecordDecision(decision string) {
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *retrievalMetrics) RecordResolve(source string) {
	m.resolves.WithLabelValues(source).Inc()
}

func (m *retrievalMetrics) RecordModeration(outcome string) {
	m.moderation.WithLabelValues(outcome).Inc()
}

// pathCacheMetrics is the Prometheus implementation of telegram.CacheMetrics.
type pathCacheMetrics struct {
	lookups *prometheus.CounterVec
}

// NewPathCacheMetrics registers the path cache metric set on reg.
func NewPathCacheMetrics(reg prometheus.Registerer) telegram.CacheMetrics {
	return &pathCacheMetrics{
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "telebox_path_cache_total",
				Help: "getFile path cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *pathCacheMetrics) RecordLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(result).Inc()
}
