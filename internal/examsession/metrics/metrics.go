// Package metrics exposes Prometheus counters for the exam session manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid_credentials"
	OutcomeLocked  = "locked"
	OutcomeExpired = "expired"
)

type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	Lockouts       prometheus.Counter
	ExamsCompleted prometheus.Counter
	ExamScores     prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drivecert_exam_login_attempts_total",
			Help: "Exam login attempts by outcome.",
		}, []string{"outcome"}),
		Lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drivecert_exam_lockouts_total",
			Help: "Hard lockouts triggered by the rate limiter.",
		}),
		ExamsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "drivecert_exams_completed_total",
			Help: "Theoretical exams finalized, whether submitted or timed out.",
		}),
		ExamScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "drivecert_exam_scaled_score",
			Help:    "Distribution of scaled theoretical exam scores.",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.LoginAttempts, m.Lockouts, m.ExamsCompleted, m.ExamScores)
	}
	return m
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *Metrics) ObserveCompletion(scaled int) {
	if m == nil {
		return
	}
	m.ExamsCompleted.Inc()
	m.ExamScores.Observe(float64(scaled))
}
