package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := New("economy")
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)

	m.IncAttempt("auction.bid")
	m.IncAttempt("auction.bid")
	m.IncConflict("auction.bid")
	m.IncBid(BidAccepted)
	m.ObserveDuration("auction.bid", 5*time.Millisecond)

	if got := testutil.ToFloat64(m.TxAttempts.WithLabelValues("auction.bid")); got != 2 {
		t.Errorf("tx_attempts_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TxConflicts.WithLabelValues("auction.bid")); got != 1 {
		t.Errorf("tx_conflicts_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Bids.WithLabelValues(BidAccepted)); got != 1 {
		t.Errorf("bids_total{accepted} = %v, want 1", got)
	}
	if n, err := testutil.GatherAndCount(reg, "economy_tx_duration_seconds"); err != nil || n != 1 {
		t.Errorf("GatherAndCount(duration) = %d, %v", n, err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.IncAttempt("x")
	m.IncConflict("x")
	m.IncExhausted("x")
	m.ObserveDuration("x", time.Second)
	m.IncBid(BidRejected)
}
