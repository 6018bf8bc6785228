// Package client is the caller-side companion to the worker: it submits a
// generation request over the /run endpoint and polls until the job reaches
// a terminal state or a wait budget runs out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrPollTimeout is returned when the wait budget is exhausted before a
// terminal status is observed. The job may still be running server-side;
// the poller never cancels it.
var ErrPollTimeout = errors.New("timed out waiting for generation")

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxWait      = 30 * time.Minute
)

// Options configures a Client.
type Options struct {
	// BaseURL is the worker endpoint, e.g. http://localhost:8080.
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxWait      time.Duration
}

// Client drives the worker's action API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	maxWait      time.Duration
}

// NewClient constructs a Client with the documented polling defaults.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:      opts.BaseURL,
		httpClient:   opts.HTTPClient,
		pollInterval: opts.PollInterval,
		maxWait:      opts.MaxWait,
	}
	if c.httpClient == nil {
		// The generate call blocks server-side for the whole render, so no
		// client-level timeout; cancellation comes from the caller's context.
		c.httpClient = &http.Client{}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.maxWait <= 0 {
		c.maxWait = defaultMaxWait
	}
	return c
}

// GenerateParams mirrors the generate action's fields. Numeric overrides are
// pointers, like the worker's request shape, so an explicit zero is sent
// rather than dropped in favor of the server default.
type GenerateParams struct {
	AudioPath   string   `json:"audio_path,omitempty"`
	AudioURL    string   `json:"audio_url,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Prompt      string   `json:"prompt,omitempty"`
	Size        string   `json:"size,omitempty"`
	FrameNum    *int     `json:"frame_num,omitempty"`
	MaxFrameNum *int     `json:"max_frame_num,omitempty"`
	SampleSteps *int     `json:"sample_steps,omitempty"`
	CFGScale    *float64 `json:"cfg_scale,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}

// Result is the superset of the worker's response shapes; callers branch on
// Status and Error, never on transport failures.
type Result struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	OutputPath  string `json:"output_path"`
	DownloadURL string `json:"download_url"`
	LocalPath   string `json:"local_path"`
	Message     string `json:"message"`
	Error       string `json:"error"`
}

// Generate submits a generation request.
func (c *Client) Generate(ctx context.Context, p GenerateParams) (Result, error) {
	payload := struct {
		Action string `json:"action"`
		GenerateParams
	}{Action: "generate", GenerateParams: p}
	return c.run(ctx, payload)
}

// Status fetches the current job snapshot.
func (c *Client) Status(ctx context.Context, jobID string) (Result, error) {
	return c.run(ctx, map[string]string{"action": "status", "job_id": jobID})
}

// GetOutput fetches the artifact reference of a completed job.
func (c *Client) GetOutput(ctx context.Context, jobID string) (Result, error) {
	return c.run(ctx, map[string]string{"action": "get_output", "job_id": jobID})
}

// GenerateAndWait submits a request and polls status at a fixed interval
// until the job completes, fails, or the wait budget is spent. On completion
// it issues a single get_output call and returns its result.
func (c *Client) GenerateAndWait(ctx context.Context, p GenerateParams) (Result, error) {
	submitted, err := c.Generate(ctx, p)
	if err != nil {
		return Result{}, err
	}
	if submitted.Error != "" || submitted.Status == "failed" {
		return submitted, nil
	}
	if submitted.Status == "completed" {
		return c.GetOutput(ctx, submitted.JobID)
	}
	if submitted.JobID == "" {
		return submitted, errors.New("client: no job_id in generate response")
	}

	// Poll first, wait after: a job that is already terminal is observed
	// without paying an interval for it.
	deadline := time.Now().Add(c.maxWait)
	for {
		status, err := c.Status(ctx, submitted.JobID)
		if err != nil {
			return Result{}, err
		}
		switch status.Status {
		case "completed":
			return c.GetOutput(ctx, submitted.JobID)
		case "failed":
			return status, nil
		}

		if !time.Now().Before(deadline) {
			return Result{}, fmt.Errorf("client: job %s: %w", submitted.JobID, ErrPollTimeout)
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) run(ctx context.Context, payload any) (Result, error) {
	body, err := json.Marshal(map[string]any{"input": payload})
	if err != nil {
		return Result{}, fmt.Errorf("client: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("client: call worker: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("client: worker returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("client: decode response: %w", err)
	}
	return result, nil
}
