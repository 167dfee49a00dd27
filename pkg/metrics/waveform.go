package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *Manager) initWaveformMetrics(cfg Config) {
	m.cycleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveform_update_cycles_total",
			Help: "Total number of update cycles by outcome",
		},
		[]string{"status"},
	)

	m.cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "waveform_update_cycle_duration_seconds",
			Help:    "Update cycle duration in seconds",
			Buckets: cfg.CycleDurationBuckets,
		},
	)

	m.activeChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "waveform_active_channels",
			Help: "Number of channels currently in the On state",
		},
	)

	m.samplesEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveform_samples_emitted_total",
			Help: "Total number of samples emitted per channel",
		},
		[]string{"channel"},
	)

	m.triggersDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveform_triggers_detected_total",
			Help: "Total number of trigger events detected per source channel",
		},
		[]string{"channel"},
	)

	m.annotationsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waveform_annotations_applied_total",
			Help: "Total number of annotations applied per destination channel",
		},
		[]string{"channel"},
	)

	m.registry.MustRegister(m.cycleTotal)
	m.registry.MustRegister(m.cycleDuration)
	m.registry.MustRegister(m.activeChannels)
	m.registry.MustRegister(m.samplesEmitted)
	m.registry.MustRegister(m.triggersDetected)
	m.registry.MustRegister(m.annotationsApplied)
}

// RecordCycle records one completed update cycle.
func (m *Manager) RecordCycle(status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.cycleTotal.WithLabelValues(status).Inc()
	m.cycleDuration.Observe(duration.Seconds())
}

// SetActiveChannels records the number of channels in the On state.
func (m *Manager) SetActiveChannels(n int) {
	if !m.enabled {
		return
	}
	m.activeChannels.Set(float64(n))
}

// RecordSamples records samples emitted for a channel.
func (m *Manager) RecordSamples(channel string, count int) {
	if !m.enabled || count == 0 {
		return
	}
	m.samplesEmitted.WithLabelValues(channel).Add(float64(count))
}

// RecordTriggers records trigger events detected on a source channel.
func (m *Manager) RecordTriggers(channel string, count int) {
	if !m.enabled || count == 0 {
		return
	}
	m.triggersDetected.WithLabelValues(channel).Add(float64(count))
}

// RecordAnnotation records one annotation applied to a destination channel.
func (m *Manager) RecordAnnotation(channel string) {
	if !m.enabled {
		return
	}
	m.annotationsApplied.WithLabelValues(channel).Inc()
}
