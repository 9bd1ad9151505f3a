package stt_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shortreel/internal/services"
	"shortreel/internal/services/stt"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "narration.wav")
	if err := os.WriteFile(path, []byte("RIFF-fake-audio"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const verboseJSONResponse = `{
  "text": "Hello world",
  "language": "en",
  "duration": 1.248,
  "words": [
    {"word": "Hello", "start": 0.0, "end": 0.5},
    {"word": "world", "start": 0.6, "end": 1.1, "probability": 0.93}
  ]
}`

func TestTranscribeParsesVerboseJSON(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if got := r.FormValue("timestamp_granularities[]"); got != "word" {
			t.Errorf("timestamp_granularities = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(verboseJSONResponse))
	}))
	defer server.Close()

	client := stt.NewClient(stt.Config{APIKey: "key", BaseURL: server.URL, Model: "whisper-large-v3-turbo"})
	result, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("authorization header: %q", gotAuth)
	}
	if gotContentType == "" {
		t.Fatal("missing multipart content type")
	}
	if result.Text != "Hello world" || result.Language != "en" {
		t.Fatalf("unexpected metadata: %#v", result)
	}
	if result.Duration != 1248*time.Millisecond {
		t.Fatalf("duration: got %v, want 1.248s", result.Duration)
	}
	if len(result.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(result.Words))
	}
	hello := result.Words[0]
	if hello.Text != "Hello" || hello.Start != 0 || hello.End != 500*time.Millisecond {
		t.Fatalf("unexpected first word: %#v", hello)
	}
	if hello.Confidence != 1.0 {
		t.Fatalf("missing probability must default to 1.0, got %v", hello.Confidence)
	}
	if result.Words[1].Confidence != 0.93 {
		t.Fatalf("probability not carried: %v", result.Words[1].Confidence)
	}
}

func TestTranscribeRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream unavailable", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(verboseJSONResponse))
	}))
	defer server.Close()

	var slept []time.Duration
	client := stt.NewClient(
		stt.Config{APIKey: "key", BaseURL: server.URL, MaxAttempts: 3},
		stt.WithRetryBackoff(10*time.Millisecond, 50*time.Millisecond),
		stt.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	if _, err := client.Transcribe(context.Background(), writeAudioFixture(t)); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %v", slept)
	}
	if slept[1] <= slept[0] {
		t.Fatalf("backoff must grow: %v", slept)
	}
}

func TestTranscribeDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad audio format", http.StatusBadRequest)
	}))
	defer server.Close()

	client := stt.NewClient(
		stt.Config{APIKey: "key", BaseURL: server.URL, MaxAttempts: 3},
		stt.WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if !errors.Is(err, services.ErrExternalFailed) {
		t.Fatalf("expected ErrExternalFailed, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls)
	}
}

func TestTranscribeExhaustsRetryBudget(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "still broken", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := stt.NewClient(
		stt.Config{APIKey: "key", BaseURL: server.URL, MaxAttempts: 2},
		stt.WithRetryBackoff(time.Millisecond, 2*time.Millisecond),
		stt.WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if !errors.Is(err, services.ErrExternalFailed) {
		t.Fatalf("expected ErrExternalFailed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected the retry budget to bound attempts, got %d", calls)
	}
}

func TestTranscribeHonorsRetryAfter(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(verboseJSONResponse))
	}))
	defer server.Close()

	var slept []time.Duration
	client := stt.NewClient(
		stt.Config{APIKey: "key", BaseURL: server.URL, MaxAttempts: 2},
		stt.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	if _, err := client.Transcribe(context.Background(), writeAudioFixture(t)); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected Retry-After to set the delay, got %v", slept)
	}
}

func TestTranscribeRequiresAPIKey(t *testing.T) {
	client := stt.NewClient(stt.Config{})
	_, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestHealthCheckValidatesConfig(t *testing.T) {
	if err := stt.NewClient(stt.Config{APIKey: "key"}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	err := stt.NewClient(stt.Config{}).HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
