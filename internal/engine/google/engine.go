// Package google provides a transcription engine backed by Google
// Cloud Speech-to-Text.
package google

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"realtime-transcription-service/internal/audio"
	"realtime-transcription-service/internal/engine"
)

// Config contains Google Cloud Speech engine configuration.
type Config struct {
	SampleRate int
	// DefaultLanguage is used when a session supplies no hint; the v1
	// API requires a language code on every request.
	DefaultLanguage string
}

// Engine implements engine.Engine using synchronous recognition over a
// window snapshot. Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type Engine struct {
	client *speech.Client
	cfg    Config
}

// New creates a Google Cloud Speech engine.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("google engine sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en-US"
	}
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Engine{client: c, cfg: cfg}, nil
}

// Transcribe recognizes the sample window as LINEAR16 mono audio.
func (e *Engine) Transcribe(ctx context.Context, samples []float32, languageHint string) ([]engine.Segment, string, error) {
	if len(samples) == 0 {
		return nil, "", fmt.Errorf("cannot transcribe empty audio")
	}

	language := languageHint
	if language == "" {
		language = e.cfg.DefaultLanguage
	}

	resp, err := e.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(e.cfg.SampleRate),
			LanguageCode:    language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio.EncodePCM16(samples),
			},
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("recognize: %w", err)
	}

	var (
		segments []engine.Segment
		detected string
		cursor   float64
	)
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		end := cursor
		if t := r.ResultEndTime; t != nil {
			end = t.AsDuration().Seconds()
		}
		segments = append(segments, engine.Segment{
			Start: cursor,
			End:   end,
			Text:  r.Alternatives[0].Transcript,
		})
		cursor = end
		if r.LanguageCode != "" {
			detected = r.LanguageCode
		}
	}
	if detected == "" {
		detected = language
	}
	return segments, detected, nil
}

// Close releases the underlying gRPC client.
func (e *Engine) Close() error {
	return e.client.Close()
}
