// Package orchestrator coordinates one generation job end to end: record
// creation, input resolution, generator invocation, artifact publishing and
// the single terminal status update.
package orchestrator

import (
	"context"
	"os"
	"time"

	"infinitetalk/internal/assets"
	"infinitetalk/internal/domain"
	"infinitetalk/internal/generate"
	"infinitetalk/internal/infra"
	"infinitetalk/internal/publish"
)

type assetResolver interface {
	Validate(req assets.Request) error
	Resolve(ctx context.Context, jobID string, req assets.Request) (assets.Resolved, error)
}

type generationInvoker interface {
	Invoke(ctx context.Context, jobID string, in assets.Resolved, cfg generate.Config) (generate.Outcome, error)
}

type outputPublisher interface {
	Publish(ctx context.Context, jobID, outputPath string) (publish.Result, error)
}

// Orchestrator owns the generation pipeline. Failures anywhere inside it are
// converted into a terminal failed job plus a structured response; no error
// ever escapes to the caller as a Go error.
type Orchestrator struct {
	store     domain.JobStore
	resolver  assetResolver
	invoker   generationInvoker
	publisher outputPublisher
	warmer    generate.Warmer
	logger    infra.Logger
}

// New wires the pipeline components together.
func New(store domain.JobStore, resolver assetResolver, invoker generationInvoker, publisher outputPublisher, warmer generate.Warmer, logger infra.Logger) *Orchestrator {
	if warmer == nil {
		warmer = generate.NopWarmer{}
	}
	return &Orchestrator{
		store:     store,
		resolver:  resolver,
		invoker:   invoker,
		publisher: publisher,
		warmer:    warmer,
		logger:    logger,
	}
}

// GenerateRequest is the payload of a generate action. Pointer fields keep
// explicit zero overrides distinguishable from absent ones.
type GenerateRequest struct {
	AudioPath   string   `json:"audio_path,omitempty"`
	AudioURL    string   `json:"audio_url,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Prompt      *string  `json:"prompt,omitempty"`
	Size        *string  `json:"size,omitempty"`
	FrameNum    *int     `json:"frame_num,omitempty"`
	MaxFrameNum *int     `json:"max_frame_num,omitempty"`
	SampleSteps *int     `json:"sample_steps,omitempty"`
	SampleShift *int     `json:"sample_shift,omitempty"`
	CFGScale    *float64 `json:"cfg_scale,omitempty"`
	Seed        *int     `json:"seed,omitempty"`
}

// GenerateResponse reports the terminal outcome of a generate action. Failed
// and successful jobs share the same transport shape; callers branch on
// Status, never on transport-level errors.
type GenerateResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	OutputPath  string `json:"output_path,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// StatusResponse is a read-only snapshot of a job record.
type StatusResponse struct {
	JobID       string     `json:"job_id"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
	OutputPath  string     `json:"output_path,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// OutputResponse is the result of a get_output action on a completed job.
type OutputResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url,omitempty"`
	LocalPath   string `json:"local_path"`
	Message     string `json:"message,omitempty"`
}

// ErrorResponse carries a payload-level error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Generate runs the full pipeline for one request. The job record is created
// before validation so every accepted request, including client mistakes, is
// observable through status queries.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) GenerateResponse {
	jobID, err := o.store.Create(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("orchestrator: create job record")
		return GenerateResponse{Status: string(domain.JobStatusFailed), Error: err.Error()}
	}
	log := o.logger.With().Str("job_id", jobID).Logger()
	log.Info().Msg("orchestrator: job accepted")

	fail := func(err error) GenerateResponse {
		log.Error().Err(err).Msg("orchestrator: job failed")
		if updErr := o.store.Fail(ctx, jobID, err.Error()); updErr != nil {
			log.Error().Err(updErr).Msg("orchestrator: record failure")
		}
		return GenerateResponse{JobID: jobID, Status: string(domain.JobStatusFailed), Error: err.Error()}
	}

	if err := o.resolver.Validate(assetRequest(req)); err != nil {
		return fail(err)
	}
	if err := o.warmer.Warmup(ctx); err != nil {
		return fail(err)
	}

	resolved, err := o.resolver.Resolve(ctx, jobID, assetRequest(req))
	if err != nil {
		return fail(err)
	}

	cfg := generate.BuildConfig(generate.Overrides{
		Prompt:      req.Prompt,
		Size:        req.Size,
		FrameNum:    req.FrameNum,
		MaxFrameNum: req.MaxFrameNum,
		SampleSteps: req.SampleSteps,
		SampleShift: req.SampleShift,
		CFGScale:    req.CFGScale,
		Seed:        req.Seed,
	})

	outcome, err := o.invoker.Invoke(ctx, jobID, resolved, cfg)
	if err != nil {
		return fail(err)
	}

	published, err := o.publisher.Publish(ctx, jobID, outcome.OutputPath)
	if err != nil {
		return fail(err)
	}

	if err := o.store.Complete(ctx, jobID, published.OutputPath, published.DownloadURL); err != nil {
		return fail(err)
	}
	log.Info().Str("output_path", published.OutputPath).Msg("orchestrator: job completed")
	return GenerateResponse{
		JobID:       jobID,
		Status:      string(domain.JobStatusCompleted),
		OutputPath:  published.OutputPath,
		DownloadURL: published.DownloadURL,
	}
}

// Status returns a snapshot of the job, or an error payload for unknown IDs.
func (o *Orchestrator) Status(ctx context.Context, jobID string) any {
	if jobID == "" {
		return ErrorResponse{Error: "job_id is required"}
	}
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return ErrorResponse{Error: "Job not found"}
	}
	return snapshot(job)
}

// GetOutput returns the artifact reference of a completed job. Not-yet-done
// jobs get a distinct "not completed" error carrying the current status so
// pollers can tell it apart from an unknown ID.
func (o *Orchestrator) GetOutput(ctx context.Context, jobID string) any {
	if jobID == "" {
		return ErrorResponse{Error: "job_id is required"}
	}
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return ErrorResponse{Error: "Job not found"}
	}
	if job.Status != domain.JobStatusCompleted {
		return ErrorResponse{Error: "Job is not completed. Current status: " + string(job.Status)}
	}
	if job.OutputPath == "" {
		return ErrorResponse{Error: "Output file not found"}
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		return ErrorResponse{Error: "Output file not found"}
	}

	resp := OutputResponse{
		JobID:       job.ID,
		Status:      string(job.Status),
		DownloadURL: job.DownloadURL,
		LocalPath:   job.OutputPath,
	}
	if resp.DownloadURL == "" {
		resp.Message = "File available on volume storage"
	}
	return resp
}

func assetRequest(req GenerateRequest) assets.Request {
	return assets.Request{
		AudioPath: req.AudioPath,
		AudioURL:  req.AudioURL,
		ImagePath: req.ImagePath,
		ImageURL:  req.ImageURL,
	}
}

func snapshot(job domain.Job) StatusResponse {
	resp := StatusResponse{
		JobID:       job.ID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		StartedAt:   job.StartedAt,
		OutputPath:  job.OutputPath,
		DownloadURL: job.DownloadURL,
		Error:       job.Error,
	}
	if !job.CompletedAt.IsZero() {
		t := job.CompletedAt
		resp.CompletedAt = &t
	}
	if !job.FailedAt.IsZero() {
		t := job.FailedAt
		resp.FailedAt = &t
	}
	return resp
}
