package domain

import "errors"

var (
	ErrNotFound         = errors.New("job not found")
	ErrNotReady         = errors.New("job not completed")
	ErrMissingInput     = errors.New("missing required input")
	ErrDownloadFailed   = errors.New("download failed")
	ErrGenerationFailed = errors.New("generation failed")
	ErrOutputMissing    = errors.New("output file not found")
	ErrJobFinalized     = errors.New("job already finalized")
)
