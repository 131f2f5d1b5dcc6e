// Package metrics exposes Prometheus counters for recording sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "k6rec"

// Metrics holds the recorder counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	CallsRecorded *prometheus.CounterVec
	CallsFailed   *prometheus.CounterVec
	Findings      *prometheus.CounterVec
	Flushes       *prometheus.CounterVec
	BodyFallbacks prometheus.Counter
}

// New creates the counters and registers them with reg. A nil reg uses a
// private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		CallsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_recorded_total",
			Help:      "Intercepted calls appended to a recording, by method.",
		}, []string{"method"}),
		CallsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_failed_total",
			Help:      "Intercepted calls whose underlying request failed, by method.",
		}, []string{"method"}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Secret occurrences discovered during redaction, by source.",
		}, []string{"source"}),
		Flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Flush attempts, by result.",
		}, []string{"result"}),
		BodyFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "body_clone_fallbacks_total",
			Help:      "Bodies recorded unredacted because they could not be cloned.",
		}),
	}
	reg.MustRegister(m.CallsRecorded, m.CallsFailed, m.Findings, m.Flushes, m.BodyFallbacks)
	return m
}

func (m *Metrics) CallRecorded(method string) {
	if m == nil {
		return
	}
	m.CallsRecorded.WithLabelValues(method).Inc()
}

func (m *Metrics) CallFailed(method string) {
	if m == nil {
		return
	}
	m.CallsFailed.WithLabelValues(method).Inc()
}

func (m *Metrics) Finding(source string) {
	if m == nil {
		return
	}
	m.Findings.WithLabelValues(source).Inc()
}

func (m *Metrics) Flush(result string) {
	if m == nil {
		return
	}
	m.Flushes.WithLabelValues(result).Inc()
}

func (m *Metrics) BodyFallback() {
	if m == nil {
		return
	}
	m.BodyFallbacks.Inc()
}
