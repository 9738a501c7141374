package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"realtime-transcription-service/internal/engine"
	"realtime-transcription-service/internal/observability/logging"
	"realtime-transcription-service/internal/observability/metrics"
)

// ErrUnknownSession is returned when audio arrives for a session id
// that no registered session currently carries.
var ErrUnknownSession = errors.New("unknown session")

// RegistryConfig tunes the registry and its sessions.
type RegistryConfig struct {
	Session Config

	// IdleTimeout finalizes sessions with no ingested audio for this
	// long; zero disables the sweep.
	IdleTimeout time.Duration
	// SweepInterval is how often idle sessions are looked for.
	SweepInterval time.Duration
}

func (c RegistryConfig) withDefaults() RegistryConfig {
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	return c
}

// Registry owns the set of live sessions, keyed by session id. At most
// one session per id is registered at any time; starting an id that is
// already registered finalizes and replaces the old session.
type Registry struct {
	cfg RegistryConfig
	eng engine.Engine
	pub TranscriptPublisher
	m   *metrics.Metrics
	log zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// NewRegistry creates a registry and, when an idle timeout is set,
// starts the background sweep.
func NewRegistry(eng engine.Engine, pub TranscriptPublisher, cfg RegistryConfig) *Registry {
	cfg = cfg.withDefaults()
	r := &Registry{
		cfg:      cfg,
		eng:      eng,
		pub:      pub,
		m:        metrics.DefaultMetrics,
		log:      logging.WithComponent("session-registry"),
		sessions: make(map[string]*Session),
	}
	if cfg.IdleTimeout > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		r.sweepCancel = cancel
		r.sweepDone = make(chan struct{})
		go r.sweepLoop(ctx)
	}
	return r
}

// Start registers a fresh session for id and acknowledges it to the
// peer. A displaced session with the same id is finalized first, so
// its final events are emitted before the new session produces any.
func (r *Registry) Start(id string, sink Sink) *Session {
	s := New(id, sink, r.eng, r.pub, r.cfg.Session, r.m)

	r.mu.Lock()
	old := r.sessions[id]
	r.sessions[id] = s
	r.mu.Unlock()

	if old != nil {
		r.log.Warn().Str("sessionId", id).Msg("session id already active, restarting")
		r.finish(old, "restart")
	}

	r.m.RecordSessionStart()
	s.announceStarted()
	return s
}

// Ingest routes a binary audio frame to its session.
func (r *Registry) Ingest(id string, chunk []byte) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	s.Ingest(chunk)
	return nil
}

// End finalizes and removes the session for id; a no-op when the id is
// not registered, so duplicate end signals and late disconnects are
// harmless.
func (r *Registry) End(id string) {
	r.endWithReason(id, "client")
}

func (r *Registry) endWithReason(id, reason string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	r.finish(s, reason)
}

func (r *Registry) finish(s *Session, reason string) {
	s.Finalize()
	r.m.RecordSessionEnd(reason, time.Since(s.startTime).Seconds())
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the sweep and finalizes every remaining session.
func (r *Registry) Close() {
	if r.sweepCancel != nil {
		r.sweepCancel()
		<-r.sweepDone
	}

	r.mu.Lock()
	remaining := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		remaining = append(remaining, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range remaining {
		r.finish(s, "shutdown")
	}
}

func (r *Registry) sweepLoop(ctx context.Context) {
	defer close(r.sweepDone)
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepIdle()
		}
	}
}

func (r *Registry) sweepIdle() {
	cutoff := time.Now().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var idle []string
	for id, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.Unlock()

	for _, id := range idle {
		r.log.Info().Str("sessionId", id).Msg("finalizing idle session")
		r.endWithReason(id, "idle")
	}
}
