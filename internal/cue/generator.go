package cue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/example/cuegen/internal/audio"
	"github.com/example/cuegen/internal/clip"
	"github.com/example/cuegen/internal/synth"
)

const DefaultExtension = ".wav"

type Options struct {
	OutputDir string
	// TempDir holds per-cue synthesis scratch directories. Empty means the
	// system temp dir.
	TempDir   string
	Backend   synth.Backend
	Logger    *slog.Logger
	Extension string
}

// Generator runs cues through synthesize, decode, post-process and export.
// Cues are processed one at a time; a failure never stops the batch.
type Generator struct {
	outputDir string
	tempDir   string
	backend   synth.Backend
	logger    *slog.Logger
	ext       string
}

// extensioner is implemented by backends whose raw output is not WAV.
type extensioner interface {
	Extension() string
}

// NewGenerator creates the output directory. Failing to do so is the one
// error that aborts a batch before any cue runs.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Backend == nil {
		return nil, errors.New("synthesis backend is required")
	}

	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	return &Generator{
		outputDir: opts.OutputDir,
		tempDir:   opts.TempDir,
		backend:   opts.Backend,
		logger:    logger,
		ext:       ext,
	}, nil
}

// OutputPath returns where the clip for key is written.
func (g *Generator) OutputPath(key string) string {
	return filepath.Join(g.outputDir, key+g.ext)
}

// Run generates every spec in order and tallies the outcomes. Duplicate keys
// fail without touching the first cue's file. Once ctx is done the remaining
// cues are marked failed with the context error.
func (g *Generator) Run(ctx context.Context, specs []Spec) Report {
	report := Report{RunID: uuid.NewString()}
	logger := g.logger.With("run_id", report.RunID)

	logger.Info("batch started", "cues", len(specs), "backend", g.backend.Name(), "output_dir", g.outputDir)

	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if _, dup := seen[spec.Key]; dup {
			o := failed(spec.Key, StagePending, fmt.Errorf("%w: %s", ErrDuplicateKey, spec.Key))
			logger.Warn("cue failed", "cue", spec.Key, "stage", o.FailedAt.String(), "error", o.Err)
			report.add(o)

			continue
		}
		seen[spec.Key] = struct{}{}

		report.add(g.generate(ctx, spec, logger))
	}

	logger.Info("batch finished", "succeeded", report.Succeeded, "failed", report.Failed)

	return report
}

// Generate runs a single cue.
func (g *Generator) Generate(ctx context.Context, spec Spec) Outcome {
	return g.generate(ctx, spec, g.logger)
}

// Probe renders ProbeSpec through the same pipeline. Its outcome is reported
// on its own and never counted in a batch Report.
func (g *Generator) Probe(ctx context.Context) Outcome {
	return g.generate(ctx, ProbeSpec(), g.logger.With("probe", true))
}

func (g *Generator) generate(ctx context.Context, spec Spec, logger *slog.Logger) Outcome {
	logger = logger.With("cue", spec.Key)

	o := g.pipeline(ctx, spec, logger)
	if o.Success {
		logger.Info("cue generated", "duration_ms", o.DurationMS, "path", o.Path)
	} else {
		logger.Warn("cue failed", "stage", o.FailedAt.String(), "error", o.Err)
	}

	return o
}

func (g *Generator) pipeline(ctx context.Context, spec Spec, logger *slog.Logger) Outcome {
	if err := spec.Validate(); err != nil {
		return failed(spec.Key, StagePending, err)
	}

	if err := ctx.Err(); err != nil {
		return failed(spec.Key, StagePending, err)
	}

	raw, stage, err := g.render(ctx, spec, logger)
	if err != nil {
		return failed(spec.Key, stage, err)
	}

	logger.Debug("post-processing", "frames", raw.Frames(), "sample_rate", raw.SampleRate, "channels", raw.Channels)

	processed, err := clip.Process(raw, spec.MaxDuration)
	if err != nil {
		return failed(spec.Key, StagePostProcessing, err)
	}

	path := g.OutputPath(spec.Key)
	if err := export(processed, path); err != nil {
		return failed(spec.Key, StageExporting, err)
	}

	return Outcome{
		Key:        spec.Key,
		Success:    true,
		DurationMS: processed.DurationMS(),
		Path:       path,
		Stage:      StageDone,
	}
}

// render synthesizes into a private scratch directory and decodes the
// result. The scratch directory is removed before render returns.
func (g *Generator) render(ctx context.Context, spec Spec, logger *slog.Logger) (audio.Buffer, Stage, error) {
	work, err := os.MkdirTemp(g.tempDir, "cuegen-"+spec.Key+"-*")
	if err != nil {
		return audio.Buffer{}, StageSynthesizing, fmt.Errorf("create scratch dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(work); err != nil {
			logger.Warn("scratch cleanup failed", "dir", work, "error", err)
		}
	}()

	ext := DefaultExtension
	if e, ok := g.backend.(extensioner); ok {
		ext = e.Extension()
	}

	res, err := g.backend.Synthesize(ctx, spec.Text, filepath.Join(work, "raw"+ext))
	if err != nil {
		return audio.Buffer{}, StageSynthesizing, err
	}

	buf, err := audio.DecodeFile(res.Path)
	if err != nil {
		return audio.Buffer{}, StageDecoding, err
	}

	return buf, StageDecoding, nil
}

// export writes the clip next to its destination and renames it into place,
// so a failed export never leaves a partial file under the final name.
func export(buf audio.Buffer, path string) error {
	if err := buf.Validate(); err != nil {
		return &ExportError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}

	tmpName := tmp.Name()

	err = audio.WriteWAV(tmp, buf)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tmpName, path)
	}

	if err != nil {
		_ = os.Remove(tmpName)
		return &ExportError{Path: path, Err: err}
	}

	return nil
}

func failed(key string, at Stage, err error) Outcome {
	return Outcome{Key: key, Stage: StageFailed, FailedAt: at, Err: err}
}
