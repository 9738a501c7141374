// Package session implements the real-time streaming transcription
// session: a bounded rolling window of recent audio, an at-most-one
// in-flight transcription policy, incremental diffing of successive
// engine results, and a registry that owns session lifecycles.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"realtime-transcription-service/internal/audio"
	"realtime-transcription-service/internal/engine"
	"realtime-transcription-service/internal/observability/logging"
	"realtime-transcription-service/internal/observability/metrics"
)

// TranscriptPublisher mirrors transcript events to a side channel
// (Kafka) for downstream consumers. Implementations must be safe for
// concurrent use; a nil publisher disables mirroring.
type TranscriptPublisher interface {
	PublishUpdate(ctx context.Context, sessionID, text, fullText, language string) error
	PublishFinal(ctx context.Context, sessionID, text, language string) error
}

// Config holds per-session tuning. Zero values fall back to defaults.
type Config struct {
	SampleRate     int     // Hz, default 16000
	WindowSeconds  float64 // rolling window span, default 5.0
	OverlapSeconds float64 // extra retained audio, default 1.0

	// Language is an optional hint forwarded to the engine on every
	// call; empty means auto-detect.
	Language string

	// CancelJoinTimeout bounds how long finalize waits for a cancelled
	// in-flight transcription before abandoning it.
	CancelJoinTimeout time.Duration
	// FinalizeTimeout bounds the last-window transcription.
	FinalizeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = 5.0
	}
	if c.OverlapSeconds < 0 {
		c.OverlapSeconds = 0
	}
	if c.OverlapSeconds == 0 {
		c.OverlapSeconds = 1.0
	}
	if c.CancelJoinTimeout <= 0 {
		c.CancelJoinTimeout = 2 * time.Second
	}
	if c.FinalizeTimeout <= 0 {
		c.FinalizeTimeout = 30 * time.Second
	}
	return c
}

func (c Config) windowSamples() int {
	return int(c.WindowSeconds * float64(c.SampleRate))
}

func (c Config) overlapSamples() int {
	return int(c.OverlapSeconds * float64(c.SampleRate))
}

// Session is a single streaming transcription session. All mutation of
// the window, the in-flight slot, and the last emitted transcript is
// serialized by the session mutex, including the application of async
// engine results, so outgoing events are produced in a single order.
type Session struct {
	id        string
	sink      Sink
	eng       engine.Engine
	pub       TranscriptPublisher
	cfg       Config
	m         *metrics.Metrics
	log       zerolog.Logger
	startTime time.Time

	mu             sync.Mutex
	state          State
	window         *audio.Window
	lastTranscript string
	language       string
	inflight       bool
	inflightCancel context.CancelFunc
	inflightDone   chan struct{}
	lastActivity   time.Time
}

// New creates an Active session bound to the given outgoing-event sink.
func New(id string, sink Sink, eng engine.Engine, pub TranscriptPublisher, cfg Config, m *metrics.Metrics) *Session {
	cfg = cfg.withDefaults()
	if m == nil {
		m = metrics.DefaultMetrics
	}
	now := time.Now()
	return &Session{
		id:           id,
		sink:         sink,
		eng:          eng,
		pub:          pub,
		cfg:          cfg,
		m:            m,
		log:          logging.WithSession(id),
		startTime:    now,
		state:        StateActive,
		window:       audio.NewWindow(cfg.windowSamples() + cfg.overlapSamples()),
		lastActivity: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastTranscript returns the last emitted full transcript text.
func (s *Session) LastTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTranscript
}

// LastActivity returns the time of the most recent ingested frame.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// WindowLen returns the current sample count in the rolling window.
func (s *Session) WindowLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.Len()
}

// announceStarted emits the session_started acknowledgement.
func (s *Session) announceStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(newSessionStarted(s.id))
}

// Ingest decodes a binary PCM16 frame into the rolling window and
// triggers an asynchronous transcription when a full window of audio
// is available and no transcription is already in flight. A trigger
// while one is in flight is suppressed, never queued; the next frame
// after completion may re-trigger. Decode failures are reported to the
// peer and skipped; the session stays Active.
func (s *Session) Ingest(chunk []byte) {
	samples, decodeErr := audio.DecodePCM16(chunk)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}
	s.lastActivity = time.Now()
	s.m.RecordFrame(len(chunk))

	if decodeErr != nil {
		s.m.DecodeErrors.Inc()
		s.log.Warn().Err(decodeErr).Int("bytes", len(chunk)).Msg("dropping undecodable audio frame")
		s.sendLocked(newErrorEvent("audio decode failed: " + decodeErr.Error()))
		return
	}
	if len(samples) == 0 {
		return
	}

	s.window.Append(samples)

	if s.window.Len() < s.cfg.windowSamples() {
		return
	}
	if s.inflight {
		s.m.TranscriptionsSuppressed.Inc()
		return
	}

	snap := s.window.Snapshot(s.cfg.windowSamples())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.inflight = true
	s.inflightCancel = cancel
	s.inflightDone = done
	s.m.TranscriptionsTriggered.Inc()

	go s.runTranscription(ctx, cancel, snap, done)
}

// runTranscription executes one window transcription off the ingestion
// path and posts the result back under the session mutex.
func (s *Session) runTranscription(ctx context.Context, cancel context.CancelFunc, snap []float32, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := time.Now()
	segs, lang, err := s.eng.Transcribe(ctx, snap, s.cfg.Language)
	s.m.RecordEngineCall("window", err, time.Since(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight = false
	s.inflightCancel = nil
	s.inflightDone = nil

	if s.state != StateActive {
		// Finalize won the race; this result is stale.
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.log.Warn().Err(err).Msg("window transcription failed")
		s.sendLocked(newErrorEvent("transcription error: " + err.Error()))
		return
	}

	s.applyResultLocked(joinSegments(segs), lang)
}

// applyResultLocked folds an engine result into the session transcript
// and emits the appropriate update event. The last emitted text only
// ever moves forward to the newest engine result.
func (s *Session) applyResultLocked(text, language string) {
	if language != "" {
		s.language = language
	}
	if text == "" {
		return
	}
	if text == s.lastTranscript {
		s.m.DuplicatesSuppressed.Inc()
		return
	}

	increment := text
	if s.lastTranscript != "" && strings.HasPrefix(text, s.lastTranscript) {
		increment = text[len(s.lastTranscript):]
	}
	s.lastTranscript = text

	s.m.UpdatesEmitted.Inc()
	s.sendLocked(newUpdate(increment, text, s.language))

	if s.pub != nil {
		go func(id, inc, full, lang string) {
			if err := s.pub.PublishUpdate(context.Background(), id, inc, full, lang); err != nil {
				s.log.Debug().Err(err).Msg("failed to publish transcript update")
			}
		}(s.id, increment, text, s.language)
	}
}

// Finalize cancels any in-flight transcription with a bounded join,
// transcribes the entire remaining window exactly once, emits at most
// one final event, and transitions to Closed. Engine failure on the
// last window is reported to the peer but never prevents the close.
func (s *Session) Finalize() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateFinalizing
	cancel := s.inflightCancel
	done := s.inflightDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(s.cfg.CancelJoinTimeout):
			s.log.Warn().Msg("in-flight transcription did not stop in time, abandoning")
		}
	}

	s.mu.Lock()
	remaining := s.window.Snapshot(s.window.Len())
	s.mu.Unlock()

	var (
		text     string
		detected string
		engErr   error
	)
	if len(remaining) > 0 {
		ctx, cancelFinal := context.WithTimeout(context.Background(), s.cfg.FinalizeTimeout)
		start := time.Now()
		segs, lang, err := s.eng.Transcribe(ctx, remaining, s.cfg.Language)
		cancelFinal()
		s.m.RecordEngineCall("final", err, time.Since(start).Seconds())
		if err != nil {
			engErr = err
		} else {
			text = joinSegments(segs)
			detected = lang
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}

	if engErr != nil {
		s.log.Warn().Err(engErr).Msg("final transcription failed")
		s.sendLocked(newErrorEvent("final transcription error: " + engErr.Error()))
	} else if text != "" {
		if detected != "" {
			s.language = detected
		}
		s.m.FinalsEmitted.Inc()
		s.sendLocked(newFinal(text, s.language))

		if s.pub != nil {
			go func(id, final, lang string) {
				if err := s.pub.PublishFinal(context.Background(), id, final, lang); err != nil {
					s.log.Debug().Err(err).Msg("failed to publish final transcript")
				}
			}(s.id, text, s.language)
		}
	}

	s.state = StateClosed
	s.log.Info().
		Dur("duration", time.Since(s.startTime)).
		Int("remainingSamples", len(remaining)).
		Msg("session closed")
}

// sendLocked delivers an event to the peer, swallowing sink failures;
// the peer may already be gone. No events leave a Closed session.
func (s *Session) sendLocked(event any) {
	if s.state == StateClosed {
		return
	}
	if err := s.sink.Send(event); err != nil {
		s.m.SinkSendErrors.Inc()
		s.log.Debug().Err(err).Msg("peer sink rejected event")
	}
}

// joinSegments flattens engine segments into a single transcript line.
func joinSegments(segs []engine.Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
