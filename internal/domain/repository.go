package domain

import "context"

// JobStore is the authoritative record of every job's lifecycle state for the
// lifetime of the process. Implementations must be safe for concurrent use;
// readers must never observe a partially written record.
type JobStore interface {
	// Create issues a fresh unique job ID and an in_progress record atomically.
	Create(ctx context.Context) (string, error)

	// Complete transitions the job to completed with its artifact locations.
	// Calling it on an already-terminal job returns ErrJobFinalized.
	Complete(ctx context.Context, jobID, outputPath, downloadURL string) error

	// Fail transitions the job to failed with an error message.
	// Calling it on an already-terminal job returns ErrJobFinalized.
	Fail(ctx context.Context, jobID, errMsg string) error

	// Get returns a snapshot of the job, or ErrNotFound.
	Get(ctx context.Context, jobID string) (Job, error)
}
