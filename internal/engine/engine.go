// Package engine defines the transcription engine boundary shared by
// all streaming sessions.
package engine

import "context"

// Segment is one timed span of transcribed text, with offsets in
// seconds relative to the start of the transcribed audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Engine turns a window of normalized PCM samples into ordered text
// segments plus a detected language. Implementations may be slow and
// blocking; callers run them off the audio ingestion path.
//
// languageHint may be empty, in which case the engine auto-detects.
// The returned language may be empty if the engine does not report one.
//
// Implementations must be safe for concurrent use, or be wrapped in a
// Pool sized to 1.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32, languageHint string) ([]Segment, string, error)
}
