package generate

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"infinitetalk/internal/infra"
)

// Warmer prepares the model environment before the first generation.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// ModelCheck verifies the baked-in model checkouts once per process. The
// models ship inside the image, so a missing checkpoint is logged rather
// than treated as fatal; the generator itself will fail loudly if it truly
// cannot load.
type ModelCheck struct {
	modelDir string
	logger   infra.Logger

	once sync.Once
	err  error
}

// NewModelCheck constructs a ModelCheck rooted at modelDir.
func NewModelCheck(modelDir string, logger infra.Logger) *ModelCheck {
	return &ModelCheck{modelDir: modelDir, logger: logger}
}

// Warmup runs the verification exactly once; later calls return the cached
// result without re-checking.
func (m *ModelCheck) Warmup(ctx context.Context) error {
	m.once.Do(func() {
		if err := ctx.Err(); err != nil {
			m.err = err
			return
		}
		m.logger.Info().Str("model_dir", m.modelDir).Msg("warmup: checking model checkouts")
		wav2vec := filepath.Join(m.modelDir, "wav2vec2", "wav2vec2-base")
		if _, err := os.Stat(wav2vec); err != nil {
			m.logger.Warn().Str("path", wav2vec).Msg("warmup: wav2vec2 model not found")
		} else {
			m.logger.Info().Str("path", wav2vec).Msg("warmup: wav2vec2 model found")
		}
	})
	return m.err
}

// NopWarmer skips model verification entirely.
type NopWarmer struct{}

func (NopWarmer) Warmup(context.Context) error { return nil }
