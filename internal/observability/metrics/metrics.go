// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rt_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsEvicted *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Audio ingestion metrics
	FramesReceived     prometheus.Counter
	AudioBytesReceived prometheus.Counter
	DecodeErrors       prometheus.Counter

	// Trigger metrics
	TranscriptionsTriggered  prometheus.Counter
	TranscriptionsSuppressed prometheus.Counter

	// Engine metrics
	EngineLatency *prometheus.HistogramVec
	EngineErrors  *prometheus.CounterVec

	// Emission metrics
	UpdatesEmitted       prometheus.Counter
	FinalsEmitted        prometheus.Counter
	DuplicatesSuppressed prometheus.Counter
	SinkSendErrors       prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of streaming sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active streaming sessions",
		}),
		SessionsEvicted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Sessions removed from the registry, by reason",
		}, []string{"reason"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Lifetime of streaming sessions in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),

		FramesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total number of binary audio frames ingested",
		}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio payload bytes ingested",
		}),
		DecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_decode_errors_total",
			Help:      "Audio frames dropped due to PCM decode failures",
		}),

		TranscriptionsTriggered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_triggered_total",
			Help:      "Window transcriptions started",
		}),
		TranscriptionsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_suppressed_total",
			Help:      "Triggers suppressed because a transcription was already in flight",
		}),

		EngineLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_latency_seconds",
			Help:      "Transcription engine call latency",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind"}),
		EngineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Transcription engine failures, by call kind",
		}, []string{"kind"}),

		UpdatesEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_emitted_total",
			Help:      "Non-final transcription_update events emitted",
		}),
		FinalsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finals_emitted_total",
			Help:      "transcription_final events emitted",
		}),
		DuplicatesSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_suppressed_total",
			Help:      "Engine results identical to the last emitted transcript",
		}),
		SinkSendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_send_errors_total",
			Help:      "Outgoing events the peer sink failed to accept",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Transcript events published to Kafka",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Kafka publish failures",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
	}
}

// RecordSessionStart increments session counters.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session leaving the registry.
func (m *Metrics) RecordSessionEnd(reason string, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionsEvicted.WithLabelValues(reason).Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordFrame records one ingested audio frame.
func (m *Metrics) RecordFrame(bytes int) {
	m.FramesReceived.Inc()
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordEngineCall records one engine invocation outcome. kind is
// "window" for rolling-window calls and "final" for finalize calls.
func (m *Metrics) RecordEngineCall(kind string, err error, latencySeconds float64) {
	m.EngineLatency.WithLabelValues(kind).Observe(latencySeconds)
	if err != nil {
		m.EngineErrors.WithLabelValues(kind).Inc()
	}
}

// RecordKafkaPublish records one Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
