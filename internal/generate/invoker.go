package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"infinitetalk/internal/assets"
	"infinitetalk/internal/domain"
	"infinitetalk/internal/infra"
)

// Outcome is the result of one generator invocation. It is consumed
// immediately by the publisher and never persisted on its own.
type Outcome struct {
	OutputPath string
	Stdout     string
	Stderr     string
}

// Options configures an Invoker.
type Options struct {
	// PythonBin is the interpreter used to launch the generator script.
	PythonBin string
	// ScriptDir is the generator checkout; it is also the working directory
	// of the child process.
	ScriptDir string
	// ModelDir is the root holding the wan and infinitetalk checkpoints.
	ModelDir string
	// ScratchDir receives the per-job input spec files.
	ScratchDir string
	// OutputDir receives the generated <job_id>.mp4 artifacts.
	OutputDir string
	// Timeout bounds a single invocation. Zero means wait forever, which
	// matches the historical behavior; a hang then holds the worker.
	Timeout time.Duration
	Logger  infra.Logger
}

// Invoker runs the generator executable to completion, one attempt per job,
// and classifies the outcome by exit code alone.
type Invoker struct {
	opts Options
}

// NewInvoker constructs an Invoker.
func NewInvoker(opts Options) *Invoker {
	if opts.PythonBin == "" {
		opts.PythonBin = "python"
	}
	return &Invoker{opts: opts}
}

// OutputPath returns the deterministic artifact location for a job.
func (v *Invoker) OutputPath(jobID string) string {
	return filepath.Join(v.opts.OutputDir, jobID+".mp4")
}

// Invoke writes the input spec, launches the generator and waits for it to
// exit, capturing both output streams in full. A non-zero exit yields a
// GenerationError carrying the captured stderr. On success the expected
// artifact path is reported without verifying the file exists; that check
// belongs to the publisher.
func (v *Invoker) Invoke(ctx context.Context, jobID string, in assets.Resolved, cfg Config) (Outcome, error) {
	specPath := filepath.Join(v.opts.ScratchDir, jobID+"_input.json")
	if err := WriteInputSpec(specPath, cfg, in); err != nil {
		return Outcome{}, err
	}

	outputPath := v.OutputPath(jobID)
	args := v.buildArgs(specPath, outputPath, cfg)

	v.opts.Logger.Info().
		Str("job_id", jobID).
		Str("cmd", v.opts.PythonBin+" "+strings.Join(args, " ")).
		Msg("generate: launching")

	if v.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, v.opts.PythonBin, args...)
	cmd.Dir = v.opts.ScriptDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := Outcome{
		OutputPath: outputPath,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}
	if runErr != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return out, fmt.Errorf("generate: timed out after %s: %w", v.opts.Timeout, domain.ErrGenerationFailed)
		}
		return out, fmt.Errorf("generate: %v: %s: %w", runErr, strings.TrimSpace(out.Stderr), domain.ErrGenerationFailed)
	}
	return out, nil
}

// buildArgs assembles the generator command line. The script strips and
// re-appends the .mp4 extension of save_file itself.
func (v *Invoker) buildArgs(specPath, outputPath string, cfg Config) []string {
	return []string{
		filepath.Join(v.opts.ScriptDir, "generate_infinitetalk.py"),
		"--task", "infinitetalk-14B",
		"--ckpt_dir", filepath.Join(v.opts.ModelDir, "wan"),
		"--infinitetalk_dir", filepath.Join(v.opts.ModelDir, "infinitetalk"),
		"--input_json", specPath,
		"--save_file", strings.TrimSuffix(outputPath, ".mp4"),
		"--size", cfg.Size,
		"--frame_num", strconv.Itoa(cfg.FrameNum),
		"--max_frame_num", strconv.Itoa(cfg.MaxFrameNum),
		"--sample_steps", strconv.Itoa(cfg.SampleSteps),
		"--sample_shift", strconv.Itoa(cfg.SampleShift),
		"--sample_audio_guide_scale", strconv.FormatFloat(cfg.CFGScale, 'g', -1, 64),
		"--base_seed", strconv.Itoa(cfg.Seed),
	}
}
