// Package whisperd provides a transcription engine backed by an HTTP
// whisper daemon. The daemon accepts a multipart WAV upload on
// /transcribe and responds with timed segments plus the detected
// language.
package whisperd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"realtime-transcription-service/internal/audio"
	"realtime-transcription-service/internal/engine"
)

// Config contains whisper daemon client configuration.
type Config struct {
	Endpoint   string
	SampleRate int
	Timeout    time.Duration
	MaxRetries int
}

// Client implements engine.Engine against a whisper daemon.
type Client struct {
	cfg        Config
	httpClient *http.Client

	totalRequests  uint64
	failedRequests uint64
	totalRetries   uint64
}

// transcribeResponse mirrors the daemon's JSON response body.
type transcribeResponse struct {
	Segments []engine.Segment `json:"segments"`
	Language string           `json:"language"`
}

// Stats holds request counters for observability endpoints.
type Stats struct {
	TotalRequests  uint64 `json:"total_requests"`
	FailedRequests uint64 `json:"failed_requests"`
	TotalRetries   uint64 `json:"total_retries"`
}

// New creates a whisper daemon client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("whisperd endpoint cannot be empty")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("whisperd sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Transcribe uploads the sample window as a WAV file and parses the
// daemon's segment list. Retries transient failures with exponential
// backoff; client-side errors (4xx) are not retried.
func (c *Client) Transcribe(ctx context.Context, samples []float32, languageHint string) ([]engine.Segment, string, error) {
	if len(samples) == 0 {
		return nil, "", fmt.Errorf("cannot transcribe empty audio")
	}

	wav, err := audio.EncodeWAV(samples, c.cfg.SampleRate)
	if err != nil {
		return nil, "", fmt.Errorf("encode wav: %w", err)
	}

	atomic.AddUint64(&c.totalRequests, 1)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			atomic.AddUint64(&c.totalRetries, 1)
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				atomic.AddUint64(&c.failedRequests, 1)
				return nil, "", ctx.Err()
			}
		}

		segs, lang, err := c.doRequest(ctx, wav, languageHint)
		if err == nil {
			return segs, lang, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("whisperd request failed, retrying")
	}

	atomic.AddUint64(&c.failedRequests, 1)
	return nil, "", fmt.Errorf("whisperd transcription failed: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, wav []byte, languageHint string) ([]engine.Segment, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	part, err := mw.CreateFormFile("file", "window.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if languageHint != "" {
		if err := mw.WriteField("language", languageHint); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/transcribe", body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", &statusError{code: resp.StatusCode, body: string(payload)}
	}

	var parsed transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}
	return parsed.Segments, parsed.Language, nil
}

// Stats returns a snapshot of the request counters.
func (c *Client) Stats() Stats {
	return Stats{
		TotalRequests:  atomic.LoadUint64(&c.totalRequests),
		FailedRequests: atomic.LoadUint64(&c.failedRequests),
		TotalRetries:   atomic.LoadUint64(&c.totalRetries),
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("whisperd returned status %d: %s", e.code, e.body)
}

// retryable reports whether an error is worth retrying. Server-side
// and transport failures are; 4xx responses are not.
func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code >= 500
	}
	return true
}
