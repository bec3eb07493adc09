package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/cuegen/internal/config"
	"github.com/example/cuegen/internal/synth"
)

func newVoicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the configured backend and mark the one in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			voices, selected, err := availableVoices(ctx, cfg.TTS)
			if err != nil {
				return err
			}

			printVoices(cmd.OutOrStdout(), voices, selected)

			return nil
		},
	}
}

// availableVoices returns the backend's voices and the ID the selection
// rules settle on.
func availableVoices(ctx context.Context, tts config.TTSConfig) ([]synth.Voice, string, error) {
	backend, err := config.NormalizeBackend(tts.Backend)
	if err != nil {
		return nil, "", err
	}

	switch backend {
	case config.BackendCommand:
		b, err := synth.NewCommandBackend(synth.CommandOptions{
			ExecutablePath:  tts.CLIPath,
			Voice:           tts.Voice,
			PreferredVoices: tts.PreferredVoices,
			Rate:            tts.Rate,
			Logger:          slog.Default(),
		})
		if err != nil {
			return nil, "", err
		}

		voices, err := b.ListVoices(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("list voices: %w", err)
		}

		return voices, b.Voice().ID, nil
	default:
		voices, err := synth.EngineVoices(tts.VoiceManifest)
		if err != nil {
			return nil, "", err
		}

		v, err := synth.SelectVoice(voices, synth.DefaultRules(tts.Voice, tts.PreferredVoices)...)
		if err != nil {
			return voices, "", nil
		}

		return voices, v.ID, nil
	}
}

func printVoices(out io.Writer, voices []synth.Voice, selected string) {
	for _, v := range voices {
		mark := " "
		if strings.EqualFold(v.ID, selected) {
			mark = "*"
		}

		detail := v.Locale
		if v.Path != "" {
			detail = v.Path
		}

		_, _ = fmt.Fprintf(out, "%s %-24s %s\n", mark, v.ID, detail)
	}
}
