package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Bid outcomes
const (
	BidAccepted = "accepted"
	BidRejected = "rejected"
	BidInstaBuy = "insta_buy"
	BidFailed   = "failed"
)

// Metrics groups the economy collectors. A nil *Metrics records nothing.
type Metrics struct {
	TxAttempts  *prometheus.CounterVec
	TxConflicts *prometheus.CounterVec
	TxExhausted *prometheus.CounterVec
	TxDuration  *prometheus.HistogramVec
	Bids        *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	return &Metrics{
		TxAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_attempts_total",
			Help:      "Transaction attempts by operation",
		}, []string{"operation"}),
		TxConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_conflicts_total",
			Help:      "Serialization conflicts by operation",
		}, []string{"operation"}),
		TxExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_exhausted_total",
			Help:      "Operations that ran out of retries",
		}, []string{"operation"}),
		TxDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tx_duration_seconds",
			Help:      "Time spent in an operation including retries",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"operation"}),
		Bids: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_total",
			Help:      "Bids by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.TxAttempts,
		m.TxConflicts,
		m.TxExhausted,
		m.TxDuration,
		m.Bids,
	)
}

func (m *Metrics) IncAttempt(op string) {
	if m == nil {
		return
	}
	m.TxAttempts.WithLabelValues(op).Inc()
}

func (m *Metrics) IncConflict(op string) {
	if m == nil {
		return
	}
	m.TxConflicts.WithLabelValues(op).Inc()
}

func (m *Metrics) IncExhausted(op string) {
	if m == nil {
		return
	}
	m.TxExhausted.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveDuration(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.TxDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) IncBid(outcome string) {
	if m == nil {
		return
	}
	m.Bids.WithLabelValues(outcome).Inc()
}
