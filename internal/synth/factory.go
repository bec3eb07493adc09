package synth

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/example/cuegen/internal/config"
)

// New builds the backend selected by cfg.Backend.
func New(cfg config.TTSConfig, logger *slog.Logger) (Backend, error) {
	backend, err := config.NormalizeBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	switch backend {
	case config.BackendEngine:
		rate := cfg.Rate
		if rate == 0 {
			rate = DefaultEngineRate
		}

		opts := EngineOptions{
			Voice:           cfg.Voice,
			PreferredVoices: cfg.PreferredVoices,
			VoiceManifest:   cfg.VoiceManifest,
			Rate:            rate,
			Volume:          cfg.Volume,
			ExecutablePath:  cfg.CLIPath,
			ConfigPath:      cfg.CLIConfigPath,
			Quiet:           cfg.Quiet,
			Logger:          logger,
		}
		if !cfg.Quiet {
			opts.LogWriter = os.Stderr
		}

		return NewEngineBackend(opts)
	case config.BackendCommand:
		return NewCommandBackend(CommandOptions{
			ExecutablePath:  cfg.CLIPath,
			Voice:           cfg.Voice,
			PreferredVoices: cfg.PreferredVoices,
			Rate:            cfg.Rate,
			Logger:          logger,
		})
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}
