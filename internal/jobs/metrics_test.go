package jobmetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	_ = m.Track("snapshot:refresh").End(nil)
	err := m.Track("snapshot:refresh").End(errors.New("upstream down"))
	if err == nil {
		t.Fatalf("End must return the error it was given")
	}

	if got := testutil.ToFloat64(m.runs.WithLabelValues("snapshot:refresh", "success")); got != 1 {
		t.Fatalf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("snapshot:refresh", "failure")); got != 1 {
		t.Fatalf("failure runs = %v", got)
	}
}

func TestObserveSnapshot(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	m.ObserveSnapshot("main", 2048, at)

	if got := testutil.ToFloat64(m.bytes.WithLabelValues("main")); got != 2048 {
		t.Fatalf("bytes = %v", got)
	}
	if got := testutil.ToFloat64(m.refreshedAt.WithLabelValues("main")); got != float64(at.Unix()) {
		t.Fatalf("refreshed at = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSnapshot("main", 1, time.Now())
	if err := m.Track("x").End(nil); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
