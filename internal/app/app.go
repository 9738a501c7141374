// Package app wires configuration into running service components.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"realtime-transcription-service/internal/config"
	"realtime-transcription-service/internal/engine"
	googleengine "realtime-transcription-service/internal/engine/google"
	"realtime-transcription-service/internal/engine/mock"
	"realtime-transcription-service/internal/engine/whisperd"
	"realtime-transcription-service/internal/events"
	"realtime-transcription-service/internal/observability"
	"realtime-transcription-service/internal/observability/logging"
	"realtime-transcription-service/internal/session"
	"realtime-transcription-service/internal/transport/ws"
)

// Application holds the assembled service components.
type Application struct {
	StartupTime time.Time

	cfg       *config.Config
	logger    zerolog.Logger
	publisher *events.Publisher
	backend   engine.Engine // unpooled engine, closed on shutdown
	engine    engine.Engine
	registry  *session.Registry
	wsServer  *ws.Server
	obsServer *observability.Server
}

// New builds every component from the configuration. Nothing is
// listening yet; call Start for that.
func New(cfg *config.Config) (*Application, error) {
	a := &Application{
		cfg:    cfg,
		logger: logging.WithComponent("application"),
	}

	a.publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Kafka.Principal,
	})

	eng, err := a.buildEngine()
	if err != nil {
		return nil, err
	}
	a.backend = eng
	a.engine = engine.NewPool(eng, cfg.Engine.MaxConcurrent)

	a.registry = session.NewRegistry(a.engine, a.publisher, session.RegistryConfig{
		Session: session.Config{
			SampleRate:        cfg.Audio.SampleRate,
			WindowSeconds:     cfg.Audio.WindowSeconds,
			OverlapSeconds:    cfg.Audio.OverlapSeconds,
			Language:          cfg.Engine.Language,
			CancelJoinTimeout: cfg.Session.GetCancelJoinDuration(),
			FinalizeTimeout:   cfg.Session.GetFinalizeTimeoutDuration(),
		},
		IdleTimeout:   cfg.Session.GetIdleTimeoutDuration(),
		SweepInterval: cfg.Session.GetSweepIntervalDuration(),
	})

	a.wsServer = ws.New(a.registry, ws.Config{
		Address:        cfg.Server.Address,
		StreamPath:     cfg.Server.StreamPath,
		ReadLimitBytes: cfg.Server.ReadLimitBytes,
		WriteTimeout:   cfg.Server.GetWriteTimeoutDuration(),
	})

	if cfg.Observability.Enabled {
		a.obsServer = observability.NewServer(cfg.Observability.Address)
	}

	a.logger.Info().
		Str("provider", cfg.Engine.Provider).
		Int("sampleRate", cfg.Audio.SampleRate).
		Float64("windowSeconds", cfg.Audio.WindowSeconds).
		Msg("application assembled")
	return a, nil
}

func (a *Application) buildEngine() (engine.Engine, error) {
	cfg := a.cfg
	switch cfg.Engine.Provider {
	case "whisperd":
		client, err := whisperd.New(whisperd.Config{
			Endpoint:   cfg.Engine.Whisperd.Endpoint,
			SampleRate: cfg.Audio.SampleRate,
			Timeout:    cfg.Engine.Whisperd.GetTimeoutDuration(),
			MaxRetries: cfg.Engine.Whisperd.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("build whisperd engine: %w", err)
		}
		return client, nil
	case "google":
		eng, err := googleengine.New(context.Background(), googleengine.Config{
			SampleRate:      cfg.Audio.SampleRate,
			DefaultLanguage: cfg.Engine.Google.LanguageCode,
		})
		if err != nil {
			return nil, fmt.Errorf("build google engine: %w", err)
		}
		return eng, nil
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Engine.Provider)
	}
}

// Start opens the listeners.
func (a *Application) Start() {
	a.StartupTime = time.Now().UTC()
	if a.obsServer != nil {
		a.obsServer.Start()
	}
	a.wsServer.Start()
	a.logger.Info().Time("startupTime", a.StartupTime).Msg("service started")
}

// Shutdown drains connections, finalizes live sessions, and releases
// backend resources.
func (a *Application) Shutdown(ctx context.Context) {
	a.logger.Info().Msg("service shutting down")

	if err := a.wsServer.Shutdown(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("websocket server shutdown failed")
	}

	// Every still-registered session gets its final transcript.
	a.registry.Close()

	if a.obsServer != nil {
		if err := a.obsServer.Shutdown(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("observability server shutdown failed")
		}
	}

	if err := a.publisher.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("kafka publisher close failed")
	}

	if closer, ok := a.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("engine close failed")
		}
	}

	a.logger.Info().Msg("shutdown complete")
}
