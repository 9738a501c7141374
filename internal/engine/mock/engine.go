// Package mock provides a deterministic transcription engine for local
// development and tests that need no model backend. Each call returns
// the next scripted result; the script repeats its last entry once
// exhausted, mimicking a speaker who has stopped talking.
package mock

import (
	"context"
	"sync"
	"time"

	"realtime-transcription-service/internal/engine"
)

// Result is one scripted engine response.
type Result struct {
	Segments []engine.Segment
	Language string
	Err      error
}

// DefaultScript simulates a progressively growing utterance the way a
// rolling-window engine would see it.
var DefaultScript = []Result{
	{Segments: []engine.Segment{{Start: 0, End: 1.1, Text: "tell me"}}, Language: "en"},
	{Segments: []engine.Segment{{Start: 0, End: 2.3, Text: "tell me about the"}}, Language: "en"},
	{Segments: []engine.Segment{{Start: 0, End: 3.8, Text: "tell me about the weather today"}}, Language: "en"},
}

// Engine implements engine.Engine with a canned script.
type Engine struct {
	mu     sync.Mutex
	script []Result
	calls  int

	// Delay is applied per call to simulate a slow model.
	Delay time.Duration
}

// New creates a mock engine. With no results it uses DefaultScript.
func New(results ...Result) *Engine {
	if len(results) == 0 {
		results = DefaultScript
	}
	return &Engine{script: results}
}

// Transcribe returns the next scripted result.
func (e *Engine) Transcribe(ctx context.Context, samples []float32, languageHint string) ([]engine.Segment, string, error) {
	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}

	e.mu.Lock()
	idx := e.calls
	if idx >= len(e.script) {
		idx = len(e.script) - 1
	}
	e.calls++
	r := e.script[idx]
	e.mu.Unlock()

	if r.Err != nil {
		return nil, "", r.Err
	}
	return r.Segments, r.Language, nil
}

// Calls returns how many times Transcribe was invoked.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
