package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tutor-voice/internal/domain"
)

// Metrics is the Prometheus implementation of application.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	Submissions       *prometheus.CounterVec
	RecordingBytes    prometheus.Histogram
	PlaybackAttempts  *prometheus.CounterVec
	PlaybackFallbacks prometheus.Counter
}

// New registers every collector on a private registry so several clients
// can coexist in one process (and in tests).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_submissions_total",
			Help: "Conversation submissions by mode, input kind and outcome",
		}, []string{"mode", "kind", "outcome"}),
		RecordingBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutor_recording_bytes",
			Help:    "Size of finished microphone recordings",
			Buckets: prometheus.ExponentialBuckets(4*1024, 4, 8),
		}),
		PlaybackAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutor_playback_attempts_total",
			Help: "Reply playbacks started, split by automatic or manual trigger",
		}, []string{"trigger"}),
		PlaybackFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tutor_playback_fallbacks_total",
			Help: "Playbacks refused by the player and left for manual replay",
		}),
	}

	reg.MustRegister(m.Submissions, m.RecordingBytes, m.PlaybackAttempts, m.PlaybackFallbacks)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SubmissionFinished(mode domain.Mode, kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Submissions.WithLabelValues(string(mode), kind, outcome).Inc()
}

func (m *Metrics) RecordingFinished(bytes int) {
	m.RecordingBytes.Observe(float64(bytes))
}

func (m *Metrics) PlaybackStarted(manual bool) {
	trigger := "auto"
	if manual {
		trigger = "manual"
	}
	m.PlaybackAttempts.WithLabelValues(trigger).Inc()
}

func (m *Metrics) PlaybackFallback() {
	m.PlaybackFallbacks.Inc()
}
