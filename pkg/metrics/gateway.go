package metrics

import (
	"github.com/marmos91/telebox/pkg/retrieval"
	"github.com/marmos91/telebox/pkg/telegram"
	"github.com/marmos91/telebox/pkg/upload"
)

// The Prometheus implementations live in pkg/metrics/prometheus and register
// themselves here from init. The indirection keeps this package free of
// import cycles.
var (
	newUploadMetrics    func() upload.Metrics
	newRetrievalMetrics func() retrieval.Metrics
	newPathCacheMetrics func() telegram.CacheMetrics
)

// RegisterConstructors is called by pkg/metrics/prometheus during init.
func RegisterConstructors(
	uploadFn func() upload.Metrics,
	retrievalFn func() retrieval.Metrics,
	cacheFn func() telegram.CacheMetrics,
) {
	newUploadMetrics = uploadFn
	newRetrievalMetrics = retrievalFn
	newPathCacheMetrics = cacheFn
}

// NewUploadMetrics returns upload metrics, or nil when disabled.
//
//	metrics.InitRegistry()
//	pipeline := upload.NewPipeline(client, store, upload.Options{Metrics: metrics.NewUploadMetrics()})
func NewUploadMetrics() upload.Metrics {
	if !IsEnabled() || newUploadMetrics == nil {
		return nil
	}
	return newUploadMetrics()
}

// NewRetrievalMetrics returns retrieval metrics, or nil when disabled.
func NewRetrievalMetrics() retrieval.Metrics {
	if !IsEnabled() || newRetrievalMetrics == nil {
		return nil
	}
	return newRetrievalMetrics()
}

// NewPathCacheMetrics returns path cache metrics, or nil when disabled.
func NewPathCacheMetrics() telegram.CacheMetrics {
	if !IsEnabled() || newPathCacheMetrics == nil {
		return nil
	}
	return newPathCacheMetrics()
}
