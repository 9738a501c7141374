package engine

import "context"

// Pool bounds the number of concurrent Transcribe calls across all
// sessions with a fixed-size semaphore. It is the process-wide guard
// for engine backends that are expensive or not safely reentrant; a
// size of 1 fully serializes access.
type Pool struct {
	inner Engine
	sem   chan struct{}
}

// NewPool wraps inner with a concurrency limit. A non-positive size is
// treated as 1.
func NewPool(inner Engine, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		inner: inner,
		sem:   make(chan struct{}, size),
	}
}

// Transcribe acquires a slot and delegates to the wrapped engine. It
// returns the context error if the caller is cancelled while waiting.
func (p *Pool) Transcribe(ctx context.Context, samples []float32, languageHint string) ([]Segment, string, error) {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
	return p.inner.Transcribe(ctx, samples, languageHint)
}
