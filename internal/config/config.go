// Package config loads service configuration from an optional YAML
// file with environment variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server" envPrefix:"SERVER_"`
	Observability ObservabilityConfig `yaml:"observability" envPrefix:"OBS_"`
	Audio         AudioConfig         `yaml:"audio" envPrefix:"AUDIO_"`
	Engine        EngineConfig        `yaml:"engine" envPrefix:"ENGINE_"`
	Session       SessionConfig       `yaml:"session" envPrefix:"SESSION_"`
	Kafka         KafkaConfig         `yaml:"kafka" envPrefix:"KAFKA_"`
	Logging       LoggingConfig       `yaml:"logging" envPrefix:"LOG_"`
}

// ServerConfig contains the websocket ingress server configuration.
type ServerConfig struct {
	Address        string `yaml:"address" env:"ADDRESS"`
	StreamPath     string `yaml:"stream_path" env:"STREAM_PATH"`
	ReadLimitBytes int64  `yaml:"read_limit_bytes" env:"READ_LIMIT_BYTES"`
	WriteTimeout   int    `yaml:"write_timeout" env:"WRITE_TIMEOUT"` // seconds
}

// ObservabilityConfig contains the metrics/health server configuration.
type ObservabilityConfig struct {
	Address string `yaml:"address" env:"ADDRESS"`
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
}

// AudioConfig contains audio stream parameters.
type AudioConfig struct {
	SampleRate     int     `yaml:"sample_rate" env:"SAMPLE_RATE"`         // Hz
	WindowSeconds  float64 `yaml:"window_seconds" env:"WINDOW_SECONDS"`   // rolling window span
	OverlapSeconds float64 `yaml:"overlap_seconds" env:"OVERLAP_SECONDS"` // extra retained audio
}

// EngineConfig selects and tunes the transcription backend.
type EngineConfig struct {
	Provider      string         `yaml:"provider" env:"PROVIDER"` // whisperd, google, mock
	Language      string         `yaml:"language" env:"LANGUAGE"` // hint, empty = auto-detect
	MaxConcurrent int            `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	Whisperd      WhisperdConfig `yaml:"whisperd" envPrefix:"WHISPERD_"`
	Google        GoogleConfig   `yaml:"google" envPrefix:"GOOGLE_"`
}

// WhisperdConfig contains the whisperd HTTP backend configuration.
type WhisperdConfig struct {
	Endpoint   string `yaml:"endpoint" env:"ENDPOINT"`
	Timeout    int    `yaml:"timeout" env:"TIMEOUT"` // seconds
	MaxRetries int    `yaml:"max_retries" env:"MAX_RETRIES"`
}

// GoogleConfig contains the Google Cloud Speech backend configuration.
type GoogleConfig struct {
	LanguageCode string `yaml:"language_code" env:"LANGUAGE_CODE"`
}

// SessionConfig contains session lifecycle tuning.
type SessionConfig struct {
	IdleTimeout     int `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`         // seconds, 0 disables sweep
	SweepInterval   int `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`     // seconds
	FinalizeTimeout int `yaml:"finalize_timeout" env:"FINALIZE_TIMEOUT"` // seconds
	CancelJoin      int `yaml:"cancel_join" env:"CANCEL_JOIN"`           // seconds
}

// KafkaConfig contains transcript mirroring configuration.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled" env:"ENABLED"`
	Brokers      []string `yaml:"brokers" env:"BROKERS"`
	TopicPartial string   `yaml:"topic_partial" env:"TOPIC_PARTIAL"`
	TopicFinal   string   `yaml:"topic_final" env:"TOPIC_FINAL"`
	Principal    string   `yaml:"principal" env:"PRINCIPAL"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8080",
			StreamPath:     "/v1/stream",
			ReadLimitBytes: 1 << 20,
			WriteTimeout:   10,
		},
		Observability: ObservabilityConfig{
			Address: ":9090",
			Enabled: true,
		},
		Audio: AudioConfig{
			SampleRate:     16000,
			WindowSeconds:  5.0,
			OverlapSeconds: 1.0,
		},
		Engine: EngineConfig{
			Provider:      "whisperd",
			MaxConcurrent: 4,
			Whisperd: WhisperdConfig{
				Endpoint:   "http://localhost:8000",
				Timeout:    30,
				MaxRetries: 2,
			},
			Google: GoogleConfig{
				LanguageCode: "en-US",
			},
		},
		Session: SessionConfig{
			IdleTimeout:     300,
			SweepInterval:   30,
			FinalizeTimeout: 30,
			CancelJoin:      2,
		},
		Kafka: KafkaConfig{
			Enabled:      false,
			TopicPartial: "transcripts.partial",
			TopicFinal:   "transcripts.final",
			Principal:    "rt-transcription",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file when a
// path is given, then environment variable overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides are invalid: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the full configuration section by section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates the websocket server configuration.
func (s *ServerConfig) Validate() error {
	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if s.StreamPath == "" || s.StreamPath[0] != '/' {
		return fmt.Errorf("stream_path must start with '/', got %q", s.StreamPath)
	}
	if s.ReadLimitBytes < 1024 {
		return fmt.Errorf("read_limit_bytes must be at least 1024, got %d", s.ReadLimitBytes)
	}
	if s.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", s.WriteTimeout)
	}
	return nil
}

// Validate validates the audio configuration.
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}
	if a.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %f", a.WindowSeconds)
	}
	if a.OverlapSeconds < 0 {
		return fmt.Errorf("overlap_seconds cannot be negative, got %f", a.OverlapSeconds)
	}
	if a.OverlapSeconds >= a.WindowSeconds {
		return fmt.Errorf("overlap_seconds (%f) must be smaller than window_seconds (%f)",
			a.OverlapSeconds, a.WindowSeconds)
	}
	return nil
}

// Validate validates the engine configuration.
func (e *EngineConfig) Validate() error {
	switch e.Provider {
	case "whisperd":
		if e.Whisperd.Endpoint == "" {
			return fmt.Errorf("whisperd endpoint cannot be empty")
		}
		if e.Whisperd.Timeout < 1 {
			return fmt.Errorf("whisperd timeout must be at least 1 second, got %d", e.Whisperd.Timeout)
		}
		if e.Whisperd.MaxRetries < 0 {
			return fmt.Errorf("whisperd max_retries cannot be negative, got %d", e.Whisperd.MaxRetries)
		}
	case "google":
		if e.Google.LanguageCode == "" {
			return fmt.Errorf("google language_code cannot be empty")
		}
	case "mock":
	default:
		return fmt.Errorf("provider must be one of [whisperd, google, mock], got %q", e.Provider)
	}
	if e.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", e.MaxConcurrent)
	}
	return nil
}

// Validate validates the session configuration.
func (s *SessionConfig) Validate() error {
	if s.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout cannot be negative, got %d", s.IdleTimeout)
	}
	if s.IdleTimeout > 0 && s.SweepInterval < 1 {
		return fmt.Errorf("sweep_interval must be at least 1 second when idle_timeout is set, got %d", s.SweepInterval)
	}
	if s.FinalizeTimeout < 1 {
		return fmt.Errorf("finalize_timeout must be at least 1 second, got %d", s.FinalizeTimeout)
	}
	if s.CancelJoin < 1 {
		return fmt.Errorf("cancel_join must be at least 1 second, got %d", s.CancelJoin)
	}
	return nil
}

// Validate validates the Kafka configuration.
func (k *KafkaConfig) Validate() error {
	if !k.Enabled {
		return nil
	}
	if len(k.Brokers) == 0 {
		return fmt.Errorf("brokers cannot be empty when kafka is enabled")
	}
	if k.TopicPartial == "" || k.TopicFinal == "" {
		return fmt.Errorf("topic_partial and topic_final cannot be empty when kafka is enabled")
	}
	return nil
}

// Validate validates the logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [trace, debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'console', got %q", l.Format)
	}
	return nil
}

// GetWindowSamples returns the rolling window size in samples.
func (a *AudioConfig) GetWindowSamples() int {
	return int(a.WindowSeconds * float64(a.SampleRate))
}

// GetOverlapSamples returns the retained overlap size in samples.
func (a *AudioConfig) GetOverlapSamples() int {
	return int(a.OverlapSeconds * float64(a.SampleRate))
}

// GetWriteTimeoutDuration returns the peer write timeout as a time.Duration.
func (s *ServerConfig) GetWriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// GetTimeoutDuration returns the whisperd request timeout as a time.Duration.
func (w *WhisperdConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

// GetIdleTimeoutDuration returns the idle timeout as a time.Duration.
func (s *SessionConfig) GetIdleTimeoutDuration() time.Duration {
	return time.Duration(s.IdleTimeout) * time.Second
}

// GetSweepIntervalDuration returns the sweep interval as a time.Duration.
func (s *SessionConfig) GetSweepIntervalDuration() time.Duration {
	return time.Duration(s.SweepInterval) * time.Second
}

// GetFinalizeTimeoutDuration returns the finalize timeout as a time.Duration.
func (s *SessionConfig) GetFinalizeTimeoutDuration() time.Duration {
	return time.Duration(s.FinalizeTimeout) * time.Second
}

// GetCancelJoinDuration returns the cancel join timeout as a time.Duration.
func (s *SessionConfig) GetCancelJoinDuration() time.Duration {
	return time.Duration(s.CancelJoin) * time.Second
}
