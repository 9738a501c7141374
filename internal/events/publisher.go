// Package events mirrors session transcripts onto Kafka so downstream
// consumers (archival, analytics) see the same stream the peer does.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"realtime-transcription-service/internal/observability/metrics"
)

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Principal    string
	Enabled      bool
}

// TranscriptRecord is the payload written to both topics. Records of
// one session share a key and therefore a partition, preserving order.
type TranscriptRecord struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	FullText  string `json:"full_text,omitempty"`
	Language  string `json:"language,omitempty"`
	IsFinal   bool   `json:"is_final"`
	EmittedAt string `json:"emitted_at"`
}

// Publisher writes transcript records to separate partial and final
// topics. When disabled it degrades to log-only mode so the rest of
// the service never has to care whether Kafka is configured.
type Publisher struct {
	writerPartial *kafka.Writer
	writerFinal   *kafka.Writer
	principal     string
	topicPartial  string
	topicFinal    string
	enabled       bool
	metrics       *metrics.Metrics
}

// New creates a Kafka publisher. A nil config, Enabled=false, or an
// empty broker list all produce a log-only publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicPartial: cfg.TopicPartial,
			topicFinal:   cfg.TopicFinal,
			enabled:      false,
			metrics:      m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerPartial := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicPartial,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
	writerFinal := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicFinal,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPartial", cfg.TopicPartial).
		Str("topicFinal", cfg.TopicFinal).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerPartial: writerPartial,
		writerFinal:   writerFinal,
		principal:     cfg.Principal,
		topicPartial:  cfg.TopicPartial,
		topicFinal:    cfg.TopicFinal,
		enabled:       true,
		metrics:       m,
	}
}

// PublishUpdate writes an incremental transcript to the partial topic.
func (p *Publisher) PublishUpdate(ctx context.Context, sessionID, text, fullText, language string) error {
	rec := TranscriptRecord{
		SessionID: sessionID,
		Text:      text,
		FullText:  fullText,
		Language:  language,
		IsFinal:   false,
		EmittedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	return p.publish(ctx, p.writerPartial, p.topicPartial, "partial", rec)
}

// PublishFinal writes the session's final transcript to the final topic.
func (p *Publisher) PublishFinal(ctx context.Context, sessionID, text, language string) error {
	rec := TranscriptRecord{
		SessionID: sessionID,
		Text:      text,
		Language:  language,
		IsFinal:   true,
		EmittedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	return p.publish(ctx, p.writerFinal, p.topicFinal, "final", rec)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType string, rec TranscriptRecord) error {
	start := time.Now()

	payload, err := json.Marshal(rec)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal transcript record")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("sessionId", rec.SessionID).
		RawJSON("payload", payload).
		Msg("Publishing transcript record")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(rec.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("sessionId", rec.SessionID).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerPartial != nil {
		if e := p.writerPartial.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing partial writer")
			err = e
		}
	}
	if p.writerFinal != nil {
		if e := p.writerFinal.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing final writer")
			err = e
		}
	}
	return err
}
