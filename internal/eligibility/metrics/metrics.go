// Package metrics exposes Prometheus counters for certificate verification.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Verifications *prometheus.CounterVec
	BulkBatches   prometheus.Counter
	BulkSize      prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drivecert_verifications_total",
			Help: "Certificate verifications by recommendation.",
		}, []string{"recommendation"}),
		BulkBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drivecert_bulk_verifications_total",
			Help: "Bulk verification requests processed.",
		}),
		BulkSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drivecert_bulk_verification_size",
			Help:    "Number of certificate numbers per bulk request.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Verifications, m.BulkBatches, m.BulkSize)
	}
	return m
}

func (m *Metrics) ObserveVerification(recommendation string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(recommendation).Inc()
}

func (m *Metrics) ObserveBulk(size int) {
	if m == nil {
		return
	}
	m.BulkBatches.Inc()
	m.BulkSize.Observe(float64(size))
}
