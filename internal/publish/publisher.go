// Package publish verifies generated artifacts and moves them to object
// storage when one is configured.
package publish

import (
	"context"
	"fmt"
	"os"
	"time"

	"infinitetalk/internal/domain"
	"infinitetalk/internal/infra"
	"infinitetalk/internal/storage"
)

// presignTTL bounds how long a minted download link stays valid.
const presignTTL = 24 * time.Hour

// Result carries where a published artifact can be read from. DownloadURL is
// empty when no object store is configured or when publishing soft-failed.
type Result struct {
	OutputPath  string
	DownloadURL string
}

// Publisher confirms an artifact exists and optionally uploads it and mints
// a presigned download URL. Upload and presign problems are logged, not
// returned: a finished generation is never discarded over a storage hiccup.
type Publisher struct {
	objects storage.ObjectStore
	logger  infra.Logger
}

// NewPublisher constructs a Publisher. A nil object store disables upload
// and presign without error.
func NewPublisher(objects storage.ObjectStore, logger infra.Logger) *Publisher {
	return &Publisher{objects: objects, logger: logger}
}

// Publish checks the artifact on local storage and pushes it to the bucket.
// A missing artifact fails the job even though the generator exited cleanly;
// that points at silent truncation and deserves its own error class.
func (p *Publisher) Publish(ctx context.Context, jobID, outputPath string) (Result, error) {
	if _, err := os.Stat(outputPath); err != nil {
		return Result{}, fmt.Errorf("publish: %s: %w", outputPath, domain.ErrOutputMissing)
	}

	res := Result{OutputPath: outputPath}
	if p.objects == nil {
		return res, nil
	}

	key := fmt.Sprintf("outputs/%s.mp4", jobID)
	if err := p.objects.Upload(ctx, key, outputPath, "video/mp4"); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("publish: upload failed, keeping local artifact")
		return res, nil
	}
	url, err := p.objects.PresignGet(ctx, key, presignTTL)
	if err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("publish: presign failed, keeping local artifact")
		return res, nil
	}
	res.DownloadURL = url
	return res, nil
}
