// Package assets turns a request's input descriptors, a direct local path or
// a remote URL per role, into locally accessible files for the generator.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"infinitetalk/internal/domain"
	"infinitetalk/internal/infra"
)

// videoExtensions is the closed set of extensions treated as video
// conditioning input. Anything else resolves to an image.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
}

// Request carries the raw input descriptors from a generate payload.
type Request struct {
	AudioPath string
	AudioURL  string
	ImagePath string
	ImageURL  string
}

// Resolved holds one concrete local path per role plus the inferred visual kind.
type Resolved struct {
	AudioPath  string
	VisualPath string
	VisualKind domain.MediaKind
}

// Resolver fetches remote inputs into a scratch directory keyed by job ID.
type Resolver struct {
	scratchDir string
	httpClient *http.Client
	logger     infra.Logger
}

// NewResolver constructs a Resolver. A nil httpClient falls back to a client
// with a download timeout suited to large media files.
func NewResolver(scratchDir string, httpClient *http.Client, logger infra.Logger) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Resolver{scratchDir: scratchDir, httpClient: httpClient, logger: logger}
}

// Validate checks that every required role carries either a path or a URL.
// It runs before any download so client mistakes fail without wasted work.
func (r *Resolver) Validate(req Request) error {
	if req.AudioPath == "" && req.AudioURL == "" {
		return fmt.Errorf("resolver: audio: provide audio_path or audio_url: %w", domain.ErrMissingInput)
	}
	if req.ImagePath == "" && req.ImageURL == "" {
		return fmt.Errorf("resolver: visual: provide image_path or image_url: %w", domain.ErrMissingInput)
	}
	return nil
}

// Resolve produces a local path per role, downloading remote inputs to
// deterministic scratch locations. Fetch failures surface immediately with
// no retry; the job aborts before generation starts.
func (r *Resolver) Resolve(ctx context.Context, jobID string, req Request) (Resolved, error) {
	if err := r.Validate(req); err != nil {
		return Resolved{}, err
	}

	out := Resolved{AudioPath: req.AudioPath}
	if out.AudioPath == "" {
		dest := filepath.Join(r.scratchDir, jobID+"_audio.wav")
		if err := r.download(ctx, req.AudioURL, dest); err != nil {
			return Resolved{}, err
		}
		out.AudioPath = dest
	}

	if req.ImagePath != "" {
		out.VisualPath = req.ImagePath
		out.VisualKind = KindForSource(req.ImagePath)
		return out, nil
	}

	out.VisualKind = KindForSource(req.ImageURL)
	ext := ".jpg"
	if out.VisualKind == domain.MediaKindVideo {
		ext = extensionOf(req.ImageURL)
	}
	dest := filepath.Join(r.scratchDir, jobID+"_input"+ext)
	if err := r.download(ctx, req.ImageURL, dest); err != nil {
		return Resolved{}, err
	}
	out.VisualPath = dest

	r.logger.Debug().
		Str("job_id", jobID).
		Str("visual_kind", string(out.VisualKind)).
		Msg("resolver: inputs ready")
	return out, nil
}

// KindForSource infers the visual media kind from the extension of a local
// path or URL. Unknown extensions default to image.
func KindForSource(source string) domain.MediaKind {
	if videoExtensions[extensionOf(source)] {
		return domain.MediaKindVideo
	}
	return domain.MediaKindImage
}

// extensionOf returns the lower-cased extension of a path or URL,
// ignoring any query string.
func extensionOf(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		source = u.Path
	}
	return strings.ToLower(path.Ext(source))
}

func (r *Resolver) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("resolver: %s: %v: %w", rawURL, err, domain.ErrDownloadFailed)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resolver: %s: %v: %w", rawURL, err, domain.ErrDownloadFailed)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("resolver: %s: status %d: %w", rawURL, resp.StatusCode, domain.ErrDownloadFailed)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("resolver: create %s: %v: %w", dest, err, domain.ErrDownloadFailed)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("resolver: write %s: %v: %w", dest, err, domain.ErrDownloadFailed)
	}
	return nil
}
