package synth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	pockettts "github.com/MeKo-Christian/go-call-pocket-tts"

	"github.com/example/cuegen/internal/audio"
)

const (
	EngineName = "engine"

	DefaultEngineRate   = 180
	DefaultEngineVolume = 0.8
)

// wavGenerator is the slice of pockettts.Client the engine backend needs.
type wavGenerator interface {
	Generate(ctx context.Context, text string) (*pockettts.WAVResult, error)
}

type EngineOptions struct {
	Voice           string
	PreferredVoices []string
	VoiceManifest   string
	Rate            int
	Volume          float64
	ExecutablePath  string
	ConfigPath      string
	Quiet           bool
	LogWriter       io.Writer
	Logger          *slog.Logger
}

// EngineBackend renders speech with the pocket-tts engine. Voice, rate and
// volume are fixed at construction.
type EngineBackend struct {
	client wavGenerator
	voice  Voice
	rate   int
	volume float64
	logger *slog.Logger
}

func NewEngineBackend(opts EngineOptions) (*EngineBackend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Volume < 0 || opts.Volume > 1 {
		return nil, fmt.Errorf("engine volume %.2f out of range [0, 1]", opts.Volume)
	}

	voices, err := EngineVoices(opts.VoiceManifest)
	if err != nil {
		return nil, err
	}

	voice, err := SelectVoice(voices, DefaultRules(opts.Voice, opts.PreferredVoices)...)
	if err != nil {
		if opts.Voice != "" {
			return nil, fmt.Errorf("engine voice %q: %w", opts.Voice, err)
		}

		return nil, err
	}

	selector := voice.ID
	if voice.Path != "" {
		mgr, err := NewVoiceManager(opts.VoiceManifest)
		if err != nil {
			return nil, err
		}

		selector, err = mgr.ResolvePath(voice.ID)
		if err != nil {
			return nil, err
		}
	}

	client := pockettts.NewClient(pockettts.Options{
		Voice:          selector,
		Config:         opts.ConfigPath,
		Quiet:          opts.Quiet,
		ExecutablePath: opts.ExecutablePath,
		LogWriter:      opts.LogWriter,
		Concurrency:    1,
	})

	if opts.Rate > 0 && opts.Rate != DefaultEngineRate {
		logger.Warn("pocket-tts has no speech rate control; ignoring configured rate", "rate", opts.Rate)
	}

	logger.Info("engine backend ready", "voice", voice.ID, "rate", opts.Rate, "volume", opts.Volume)

	return newEngineBackend(client, voice, opts.Rate, opts.Volume, logger), nil
}

func newEngineBackend(client wavGenerator, voice Voice, rate int, volume float64, logger *slog.Logger) *EngineBackend {
	return &EngineBackend{client: client, voice: voice, rate: rate, volume: volume, logger: logger}
}

func (e *EngineBackend) Name() string { return EngineName }

// Voice returns the voice chosen at construction.
func (e *EngineBackend) Voice() Voice { return e.voice }

func (e *EngineBackend) Extension() string { return ".wav" }

func (e *EngineBackend) Synthesize(ctx context.Context, text, dest string) (Result, error) {
	spoken, err := checkRequest(EngineName, text, dest)
	if err != nil {
		return Result{}, err
	}

	res, err := e.client.Generate(ctx, spoken)
	if err != nil {
		return Result{}, &SynthesisError{Text: text, Backend: EngineName, Err: mapEngineError(err)}
	}

	data, err := e.applyVolume(res.Data)
	if err != nil {
		return Result{}, &SynthesisError{Text: text, Backend: EngineName, Err: err}
	}

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return Result{}, &SynthesisError{Text: text, Backend: EngineName, Err: err}
	}

	return checkOutput(EngineName, text, dest)
}

// applyVolume scales the rendered PCM by the configured volume.
func (e *EngineBackend) applyVolume(data []byte) ([]byte, error) {
	if len(data) == 0 || e.volume == 1 {
		return data, nil
	}

	buf, err := audio.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode engine output: %w", err)
	}

	buf.Samples = audio.Gain(buf.Samples, e.volume)

	out, err := audio.EncodeWAV(buf)
	if err != nil {
		return nil, fmt.Errorf("encode engine output: %w", err)
	}

	return out, nil
}

func mapEngineError(err error) error {
	var notFound *pockettts.ErrExecutableNotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("pocket-tts executable not found (install it or set --tts-cli-path): %w", err)
	}

	return err
}
