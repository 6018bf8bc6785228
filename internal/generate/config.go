// Package generate builds the configuration consumed by the InfiniteTalk
// generator and runs it as a child process.
package generate

import (
	"encoding/json"
	"fmt"
	"os"

	"infinitetalk/internal/assets"
	"infinitetalk/internal/domain"
)

// Resolution presets accepted by the generator.
const (
	Size480 = "infinitetalk-480"
	Size720 = "infinitetalk-720"
)

// DefaultPrompt is used when a request carries no prompt text.
const DefaultPrompt = "A person is talking"

const (
	defaultFrameNum    = 81
	defaultMaxFrameNum = 1000
	defaultSampleSteps = 40
	defaultCFGScale    = 1.1
	// Seed below zero means "let the generator pick one".
	defaultSeed = -1

	sampleShift480  = 7
	sampleShiftHigh = 11
)

// Overrides carries request-supplied parameter overrides. Pointer fields
// distinguish "absent" from an explicit zero value.
type Overrides struct {
	Prompt      *string
	Size        *string
	FrameNum    *int
	MaxFrameNum *int
	SampleSteps *int
	SampleShift *int
	CFGScale    *float64
	Seed        *int
}

// Config is the fully defaulted set of invocation parameters. Every field is
// deterministic, so a request carrying only the required assets is always
// invocable.
type Config struct {
	Prompt      string
	Size        string
	FrameNum    int
	MaxFrameNum int
	SampleSteps int
	SampleShift int
	CFGScale    float64
	Seed        int
}

// BuildConfig merges overrides with defaults. The sample_shift default is
// conditional on the resolved size: the smaller preset uses a lower shift.
func BuildConfig(o Overrides) Config {
	cfg := Config{
		Prompt:      DefaultPrompt,
		Size:        Size480,
		FrameNum:    defaultFrameNum,
		MaxFrameNum: defaultMaxFrameNum,
		SampleSteps: defaultSampleSteps,
		CFGScale:    defaultCFGScale,
		Seed:        defaultSeed,
	}
	if o.Prompt != nil {
		cfg.Prompt = *o.Prompt
	}
	if o.Size != nil && *o.Size != "" {
		cfg.Size = *o.Size
	}
	if o.FrameNum != nil {
		cfg.FrameNum = *o.FrameNum
	}
	if o.MaxFrameNum != nil {
		cfg.MaxFrameNum = *o.MaxFrameNum
	}
	if o.SampleSteps != nil {
		cfg.SampleSteps = *o.SampleSteps
	}
	if o.CFGScale != nil {
		cfg.CFGScale = *o.CFGScale
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	if o.SampleShift != nil {
		cfg.SampleShift = *o.SampleShift
	} else if cfg.Size == Size480 {
		cfg.SampleShift = sampleShift480
	} else {
		cfg.SampleShift = sampleShiftHigh
	}
	return cfg
}

// inputSpec is the JSON artifact the generator script reads. The audio track
// is keyed by speaker slot; only a single speaker is driven here.
type inputSpec struct {
	Prompt    string            `json:"prompt"`
	CondAudio map[string]string `json:"cond_audio"`
	CondImage string            `json:"cond_image,omitempty"`
	CondVideo string            `json:"cond_video,omitempty"`
}

// WriteInputSpec serializes the conditioning inputs for the generator to the
// given path.
func WriteInputSpec(path string, cfg Config, in assets.Resolved) error {
	spec := inputSpec{
		Prompt:    cfg.Prompt,
		CondAudio: map[string]string{"person1": in.AudioPath},
	}
	if in.VisualKind == domain.MediaKindVideo {
		spec.CondVideo = in.VisualPath
	} else {
		spec.CondImage = in.VisualPath
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("generate: encode input spec: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("generate: write input spec: %w", err)
	}
	return nil
}
