package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerPartial != nil {
				t.Error("expected nil partial writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicPartial: "transcripts.partial",
		TopicFinal:   "transcripts.final",
		Principal:    "rt-transcription",
	}

	p := New(cfg)

	if p.principal != "rt-transcription" {
		t.Errorf("expected principal 'rt-transcription', got %s", p.principal)
	}
	if p.topicPartial != "transcripts.partial" {
		t.Errorf("expected topic partial 'transcripts.partial', got %s", p.topicPartial)
	}
	if p.topicFinal != "transcripts.final" {
		t.Errorf("expected topic final 'transcripts.final', got %s", p.topicFinal)
	}
}

func TestPublisher_PublishUpdate_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	err := p.PublishUpdate(context.Background(), "sess-1", " world", "hello world", "en")
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishFinal_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	err := p.PublishFinal(context.Background(), "sess-1", "hello world", "en")
	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilPublisher(t *testing.T) {
	p := &Publisher{
		writerPartial: nil,
		writerFinal:   nil,
	}

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}

func TestTranscriptRecord_JSONShape(t *testing.T) {
	rec := TranscriptRecord{
		SessionID: "sess-1",
		Text:      " world",
		FullText:  "hello world",
		Language:  "en",
		IsFinal:   false,
		EmittedAt: "2025-01-01T00:00:00Z",
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"session_id", "text", "full_text", "language", "is_final", "emitted_at"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("record payload missing %q: %s", key, payload)
		}
	}
	if decoded["is_final"] != false {
		t.Errorf("is_final = %v, want false", decoded["is_final"])
	}
}

func TestTranscriptRecord_FinalOmitsFullText(t *testing.T) {
	rec := TranscriptRecord{
		SessionID: "sess-1",
		Text:      "hello world",
		IsFinal:   true,
		EmittedAt: "2025-01-01T00:00:00Z",
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["full_text"]; ok {
		t.Errorf("final record should omit full_text: %s", payload)
	}
	if decoded["is_final"] != true {
		t.Errorf("is_final = %v, want true", decoded["is_final"])
	}
}
