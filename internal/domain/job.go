package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job encapsulates the lifecycle of a single video generation request.
// A record is created exactly once in the in_progress state and mutated
// exactly once more, into completed or failed.
type Job struct {
	ID          string
	Status      JobStatus
	Progress    int
	StartedAt   time.Time
	CompletedAt time.Time
	FailedAt    time.Time
	OutputPath  string
	DownloadURL string
	Error       string
}

// MediaKind classifies the visual conditioning input.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// AssetRole names the semantic input slot a resolved file fills.
type AssetRole string

const (
	RoleAudio  AssetRole = "audio"
	RoleVisual AssetRole = "visual"
)
