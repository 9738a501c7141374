// Package ws is the websocket ingress for streaming transcription.
//
// Protocol: the client's first message is a text frame carrying the
// session id. Every binary frame after that is raw PCM16 little-endian
// mono audio. A text frame "end" or the connection closing finalizes
// the session; transcript events flow back as JSON text frames.
package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"realtime-transcription-service/internal/observability/logging"
	"realtime-transcription-service/internal/session"
)

// endSignal is the text frame that gracefully finalizes a session.
const endSignal = "end"

// Config holds websocket server settings.
type Config struct {
	Address        string
	StreamPath     string
	ReadLimitBytes int64
	WriteTimeout   time.Duration
}

// Server accepts streaming-transcription websocket connections and
// routes their audio into the session registry.
type Server struct {
	cfg      Config
	registry *session.Registry
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	log      zerolog.Logger
}

// New creates a websocket server bound to the given registry.
func New(registry *session.Registry, cfg Config) *Server {
	if cfg.StreamPath == "" {
		cfg.StreamPath = "/v1/stream"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			// Auth and origin policy sit in front of this service.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logging.WithComponent("ws-server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.StreamPath, s.handleStream)
	s.httpSrv = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("address", s.cfg.Address).Str("path", s.cfg.StreamPath).Msg("websocket server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("websocket server failed")
		}
	}()
}

// Shutdown stops accepting connections and drains existing ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	log := s.log.With().Str("connId", connID).Str("remote", r.RemoteAddr).Logger()

	if s.cfg.ReadLimitBytes > 0 {
		conn.SetReadLimit(s.cfg.ReadLimitBytes)
	}

	sessionID, err := s.readSessionID(conn)
	if err != nil {
		log.Warn().Err(err).Msg("rejecting connection without session id")
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected session id as first text frame"),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
		return
	}
	log = log.With().Str("sessionId", sessionID).Logger()
	log.Info().Msg("stream connected")

	sink := newConnSink(conn, s.cfg.WriteTimeout)
	s.registry.Start(sessionID, sink)

	defer func() {
		s.registry.End(sessionID)
		sink.close()
		_ = conn.Close()
		log.Info().Msg("stream disconnected")
	}()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("connection dropped")
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := s.registry.Ingest(sessionID, payload); err != nil {
				// Idle sweep can finalize a session out from under a
				// connection that went quiet; tell the peer and stop.
				log.Warn().Err(err).Msg("no live session for audio frame")
				return
			}
		case websocket.TextMessage:
			if strings.TrimSpace(string(payload)) == endSignal {
				return
			}
			log.Debug().Str("frame", string(payload)).Msg("ignoring unexpected text frame")
		}
	}
}

// readSessionID consumes the handshake frame.
func (s *Server) readSessionID(conn *websocket.Conn) (string, error) {
	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	if msgType != websocket.TextMessage {
		return "", errors.New("first frame must be a text frame")
	}
	id := strings.TrimSpace(string(payload))
	if id == "" {
		return "", errors.New("session id is empty")
	}
	return id, nil
}
