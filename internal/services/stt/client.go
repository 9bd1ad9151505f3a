// Package stt wraps the OpenAI-compatible audio transcription API used to
// recover word-level timestamps from narration recordings.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shortreel/internal/media"
	"shortreel/internal/services"
)

const (
	defaultBaseURL        = "https://api.groq.com/openai/v1/audio/transcriptions"
	defaultModel          = "whisper-large-v3-turbo"
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 15 * time.Second
)

// Config captures the runtime settings required to talk to the
// transcription service.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Language       string
	TimeoutSeconds int
	MaxAttempts    int
}

// Client issues transcription requests with bounded retries.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a transcription client from the supplied
// configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	attempts := defaultRetryAttempts
	if cfg.MaxAttempts > 0 {
		attempts = cfg.MaxAttempts
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Language:       strings.TrimSpace(cfg.Language),
			TimeoutSeconds: cfg.TimeoutSeconds,
			MaxAttempts:    cfg.MaxAttempts,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: attempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Transcription is the parsed word-level transcription of one recording.
type Transcription struct {
	Text     string
	Language string
	Duration time.Duration
	Words    []media.TimedWord
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("stt request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// HealthCheck verifies the client is configured well enough to attempt a
// transcription. It does not call the service.
func (c *Client) HealthCheck(ctx context.Context) error {
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "transcribe", "health", "api key required", nil)
	}
	if _, err := url.Parse(c.cfg.BaseURL); err != nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "health", "invalid base url", err)
	}
	return nil
}

// Transcribe uploads the audio file and returns the parsed word-level
// transcription. Retries transient failures with exponential backoff; the
// final error carries an ErrExternalTimeout or ErrExternalFailed marker.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*Transcription, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "request", "audio path required", nil)
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "request", "api key required", nil)
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "request", "read audio", err)
	}

	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.transcribeOnce(ctx, filepath.Base(audioPath), audio)
		if err == nil {
			return result, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, classify(err)
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return nil, classify(sleepErr)
		}
		lastErr = err
	}
	return nil, classify(fmt.Errorf("failed after %d attempts: %w", attempts, lastErr))
}

// classify tags the terminal error with the sentinel the workflow uses to
// pick a failure status.
func classify(err error) error {
	marker := services.ErrExternalFailed
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		marker = services.ErrExternalTimeout
	}
	return services.Wrap(marker, "transcribe", "request", "", err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var statusErr *httpStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusRequestTimeout
}

// verbose_json response shape. Timestamps decode through json.Number so
// the decimal-seconds conversion never rounds through a float.
type transcriptionResponse struct {
	Text     string      `json:"text"`
	Language string      `json:"language"`
	Duration json.Number `json:"duration"`
	Words    []struct {
		Word        string      `json:"word"`
		Start       json.Number `json:"start"`
		End         json.Number `json:"end"`
		Probability json.Number `json:"probability"`
	} `json:"words"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) transcribeOnce(ctx context.Context, filename string, audio []byte) (*Transcription, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("stt request: build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("stt request: write audio: %w", err)
	}
	fields := [][2]string{
		{"model", c.cfg.Model},
		{"response_format", "verbose_json"},
		{"timestamp_granularities[]", "word"},
		{"temperature", "0"},
	}
	if c.cfg.Language != "" {
		fields = append(fields, [2]string{"language", c.cfg.Language})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("stt request: write field %s: %w", field[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("stt request: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("stt request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stt request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stt request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
			RetryAfter: retryAfter,
		}
	}

	var decoded transcriptionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("stt request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("stt request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	return parseTranscription(decoded)
}

func parseTranscription(decoded transcriptionResponse) (*Transcription, error) {
	result := &Transcription{
		Text:     strings.TrimSpace(decoded.Text),
		Language: strings.TrimSpace(decoded.Language),
	}
	if decoded.Duration != "" {
		duration, err := media.ParseSeconds(decoded.Duration.String())
		if err != nil {
			return nil, fmt.Errorf("stt request: parse duration %q: %w", decoded.Duration, err)
		}
		result.Duration = duration
	}
	for i, w := range decoded.Words {
		start, err := media.ParseSeconds(w.Start.String())
		if err != nil {
			return nil, fmt.Errorf("stt request: word %d: parse start %q: %w", i, w.Start, err)
		}
		end, err := media.ParseSeconds(w.End.String())
		if err != nil {
			return nil, fmt.Errorf("stt request: word %d: parse end %q: %w", i, w.End, err)
		}
		confidence := 1.0
		if w.Probability != "" {
			if parsed, err := w.Probability.Float64(); err == nil {
				confidence = parsed
			}
		}
		result.Words = append(result.Words, media.TimedWord{
			Text:       strings.TrimSpace(w.Word),
			Start:      start,
			End:        end,
			Confidence: confidence,
		})
	}
	return result, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func (c *Client) retryAttempts() int {
	if c == nil || c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base < 0 {
		base = defaultRetryBaseDelay
	}
	if base == 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx == nil {
		return errors.New("stt retry: nil context")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
