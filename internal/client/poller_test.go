package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// stubWorker emulates the worker's /run endpoint with a scripted sequence of
// status responses.
type stubWorker struct {
	mu          sync.Mutex
	statusCalls int
	outputCalls int
	// pollsUntilDone is how many status polls report in_progress before the
	// job turns completed. Negative means it never completes.
	pollsUntilDone int
}

func (s *stubWorker) handler(w http.ResponseWriter, r *http.Request) {
	var envelope struct {
		Input map[string]any `json:"input"`
	}
	_ = json.NewDecoder(r.Body).Decode(&envelope)
	action, _ := envelope.Input["action"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch action {
	case "generate":
		_ = json.NewEncoder(w).Encode(map[string]any{"job_id": "job-1", "status": "in_progress"})
	case "status":
		s.statusCalls++
		status := "in_progress"
		if s.pollsUntilDone >= 0 && s.statusCalls > s.pollsUntilDone {
			status = "completed"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"job_id": "job-1", "status": status})
	case "get_output":
		s.outputCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"job_id":       "job-1",
			"status":       "completed",
			"local_path":   "/outputs/job-1.mp4",
			"download_url": "https://bucket.example.com/outputs/job-1.mp4?sig=x",
		})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "Unknown action: " + action})
	}
}

func newStubClient(t *testing.T, worker *stubWorker, interval, maxWait time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(worker.handler))
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
		PollInterval: interval,
		MaxWait:      maxWait,
	})
}

func TestGenerateAndWaitCompletesAfterPolls(t *testing.T) {
	const interval = 50 * time.Millisecond
	worker := &stubWorker{pollsUntilDone: 3}
	c := newStubClient(t, worker, interval, 5*time.Second)

	start := time.Now()
	result, err := c.GenerateAndWait(context.Background(), GenerateParams{
		AudioURL: "https://example.com/a.wav",
		ImageURL: "https://example.com/b.png",
	})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if result.Status != "completed" {
		t.Fatalf("status = %q", result.Status)
	}
	if result.DownloadURL == "" || result.LocalPath == "" {
		t.Fatalf("result = %+v, want output reference", result)
	}
	// Three in_progress polls plus the one that observed completion.
	if worker.statusCalls != 4 {
		t.Fatalf("status polls = %d, want 4", worker.statusCalls)
	}
	if worker.outputCalls != 1 {
		t.Fatalf("get_output calls = %d, want exactly 1", worker.outputCalls)
	}
	// The first poll fires immediately, so completion after three
	// in_progress polls costs exactly three intervals of waiting.
	if elapsed < 3*interval {
		t.Fatalf("elapsed = %v, want at least %v", elapsed, 3*interval)
	}
	if elapsed >= 5*interval {
		t.Fatalf("elapsed = %v, want under %v", elapsed, 5*interval)
	}
}

func TestGenerateAndWaitPollsBeforeSleeping(t *testing.T) {
	const interval = 300 * time.Millisecond
	worker := &stubWorker{pollsUntilDone: 0}
	c := newStubClient(t, worker, interval, 5*time.Second)

	start := time.Now()
	result, err := c.GenerateAndWait(context.Background(), GenerateParams{
		AudioURL: "https://example.com/a.wav",
		ImageURL: "https://example.com/b.png",
	})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if result.Status != "completed" {
		t.Fatalf("status = %q", result.Status)
	}
	if worker.statusCalls != 1 {
		t.Fatalf("status polls = %d, want 1", worker.statusCalls)
	}
	// A job that is already terminal must be observed without paying a
	// poll interval first.
	if elapsed >= interval {
		t.Fatalf("elapsed = %v, want under %v", elapsed, interval)
	}
}

func TestGenerateAndWaitTimesOut(t *testing.T) {
	worker := &stubWorker{pollsUntilDone: -1}
	c := newStubClient(t, worker, 10*time.Millisecond, 60*time.Millisecond)

	_, err := c.GenerateAndWait(context.Background(), GenerateParams{
		AudioURL: "https://example.com/a.wav",
		ImageURL: "https://example.com/b.png",
	})
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("err = %v, want ErrPollTimeout", err)
	}
	if worker.outputCalls != 0 {
		t.Fatalf("get_output should never run on timeout")
	}
}

func TestGenerateAndWaitReturnsFailureImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"job_id": "job-9",
			"status": "failed",
			"error":  "generation failed: no face detected",
		})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), PollInterval: time.Millisecond, MaxWait: time.Second})
	result, err := c.GenerateAndWait(context.Background(), GenerateParams{AudioPath: "/a.wav", ImagePath: "/b.png"})
	if err != nil {
		t.Fatalf("a failed job is a result, not a transport error: %v", err)
	}
	if result.Status != "failed" || result.Error == "" {
		t.Fatalf("result = %+v", result)
	}
}

func TestGenerateAndWaitSkipsPollingWhenAlreadyComplete(t *testing.T) {
	worker := &stubWorker{pollsUntilDone: 0}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var envelope struct {
			Input map[string]any `json:"input"`
		}
		_ = json.Unmarshal(body, &envelope)
		if envelope.Input["action"] == "generate" {
			_ = json.NewEncoder(w).Encode(map[string]any{"job_id": "job-1", "status": "completed", "output_path": "/outputs/job-1.mp4"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		worker.handler(w, r)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), PollInterval: time.Hour, MaxWait: time.Hour})
	result, err := c.GenerateAndWait(context.Background(), GenerateParams{AudioPath: "/a.wav", ImagePath: "/b.png"})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if result.Status != "completed" {
		t.Fatalf("status = %q", result.Status)
	}
	if worker.statusCalls != 0 {
		t.Fatalf("synchronous completion should not poll, polled %d times", worker.statusCalls)
	}
}

func TestGenerateSendsExplicitZeroOverrides(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			Input map[string]any `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&envelope)
		captured = envelope.Input
		_ = json.NewEncoder(w).Encode(map[string]any{"job_id": "job-1", "status": "in_progress"})
	}))
	defer srv.Close()

	seed := 0
	sampleSteps := 0
	c := NewClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := c.Generate(context.Background(), GenerateParams{
		AudioPath:   "/a.wav",
		ImagePath:   "/b.png",
		Seed:        &seed,
		SampleSteps: &sampleSteps,
	}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got, ok := captured["seed"]; !ok || got != float64(0) {
		t.Fatalf("seed = %v (present=%v), want an explicit 0", got, ok)
	}
	if got, ok := captured["sample_steps"]; !ok || got != float64(0) {
		t.Fatalf("sample_steps = %v (present=%v), want an explicit 0", got, ok)
	}
	if _, ok := captured["frame_num"]; ok {
		t.Fatalf("frame_num should be omitted when unset, got %v", captured["frame_num"])
	}
}
