// Package metrics registers the verification pipeline's Prometheus
// instrumentation: per-stage duration, per-variant/decision job counts,
// the forensic penalty distribution, and the Progress Bus subscriber
// count. Registered once at process start and injected into the
// Dispatcher and Progress Bus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageDuration tracks how long each pipeline stage takes, labeled by
	// stage name (extract, parse, forensic, registry, score).
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of each verification pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// JobsTotal counts completed jobs by variant and terminal decision.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_jobs_total",
		Help: "Total verification jobs reaching a terminal decision.",
	}, []string{"variant", "decision"})

	// ForensicPenaltyHistogram tracks the distribution of forensic
	// penalties (0-15) assigned across jobs.
	ForensicPenaltyHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forensic_penalty_histogram",
		Help:    "Distribution of forensic penalties (0-15) across jobs.",
		Buckets: []float64{0, 1, 3, 5, 7, 9, 11, 13, 15},
	})

	// ProgressBusSubscribersGauge tracks how many live subscribers the
	// Progress Bus currently holds across all jobs.
	ProgressBusSubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "progress_bus_subscribers_gauge",
		Help: "Number of live Progress Bus subscribers across all jobs.",
	})
)

// RecordStageDuration observes d against stage's histogram.
func RecordStageDuration(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordJob increments the terminal job counter for variant/decision.
func RecordJob(variant, decision string) {
	JobsTotal.WithLabelValues(variant, decision).Inc()
}

// RecordForensicPenalty observes penalty against the forensic-penalty
// histogram.
func RecordForensicPenalty(penalty float64) {
	ForensicPenaltyHistogram.Observe(penalty)
}

// SetProgressBusSubscribers sets the current live-subscriber gauge value.
func SetProgressBusSubscribers(count int) {
	ProgressBusSubscribersGauge.Set(float64(count))
}

// StageTimer measures one stage's duration and records it on Stop.
type StageTimer struct {
	stage string
	start time.Time
}

// NewStageTimer starts timing stage.
func NewStageTimer(stage string) *StageTimer {
	return &StageTimer{stage: stage, start: time.Now()}
}

// Stop records the elapsed duration against stage's histogram.
func (t *StageTimer) Stop() {
	RecordStageDuration(t.stage, time.Since(t.start))
}
