package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordJobIncrementsCounter(t *testing.T) {
	initial := testutil.ToFloat64(JobsTotal.WithLabelValues("VAT_REGISTRATION", "PASS"))

	RecordJob("VAT_REGISTRATION", "PASS")

	final := testutil.ToFloat64(JobsTotal.WithLabelValues("VAT_REGISTRATION", "PASS"))
	if final != initial+1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", initial, final)
	}
}

func TestStageTimerRecordsDuration(t *testing.T) {
	timer := NewStageTimer("extract")
	time.Sleep(5 * time.Millisecond)
	timer.Stop()
	// StageDuration is a vector; just confirm no panic and the label exists.
	observer, err := StageDuration.GetMetricWithLabelValues("extract")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if observer == nil {
		t.Fatal("expected a non-nil observer for stage extract")
	}
}

func TestSetProgressBusSubscribers(t *testing.T) {
	SetProgressBusSubscribers(3)
	if got := testutil.ToFloat64(ProgressBusSubscribersGauge); got != 3 {
		t.Fatalf("expected gauge value 3, got %v", got)
	}
	SetProgressBusSubscribers(0)
	if got := testutil.ToFloat64(ProgressBusSubscribersGauge); got != 0 {
		t.Fatalf("expected gauge value 0, got %v", got)
	}
}
