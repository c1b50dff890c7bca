package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics records outcomes of the upload pipeline.
type UploadMetrics struct {
	duration *prometheus.HistogramVec
	uploads  *prometheus.CounterVec
	fallback prometheus.Counter
}

// NewUploadMetrics registers the upload metrics on the provided registerer.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upload_duration_seconds",
		Help:    "Duration of video upload pipelines in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "uploads_total",
		Help: "Video upload attempts by outcome.",
	}, []string{"outcome"})
	fallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_fallback_total",
		Help: "Uploads whose remote analysis degraded to the deterministic fallback.",
	})
	reg.MustRegister(duration, uploads, fallback)
	return &UploadMetrics{
		duration: duration,
		uploads:  uploads,
		fallback: fallback,
	}
}

// ObserveUpload records one finished pipeline run.
func (m *UploadMetrics) ObserveUpload(outcome string, duration time.Duration) {
	if m == nil || m.uploads == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.uploads.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncAnalysisFallback counts a degraded analysis result.
func (m *UploadMetrics) IncAnalysisFallback() {
	if m == nil || m.fallback == nil {
		return
	}
	m.fallback.Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
