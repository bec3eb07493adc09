package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	pockettts "github.com/MeKo-Christian/go-call-pocket-tts"
	"github.com/spf13/cobra"

	"github.com/example/cuegen/internal/config"
)

// exportVoice is swapped in tests.
var exportVoice = pockettts.ExportVoice

func newExportVoiceCmd() *cobra.Command {
	var audioPath string
	var outPath string
	var id string
	var license string

	cmd := &cobra.Command{
		Use:   "export-voice",
		Short: "Export a custom engine voice (.safetensors) from a WAV prompt",
		Long: "Export a custom engine voice (.safetensors) from a WAV prompt.\n\n" +
			"Requires a Python pocket-tts installation. Add the printed entry to the\n" +
			"voice manifest to use the voice with --tts-voice.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			audioPath = strings.TrimSpace(audioPath)
			if audioPath == "" {
				return errors.New("--audio is required")
			}

			if strings.TrimSpace(outPath) == "" {
				return errors.New("--out is required")
			}

			if _, err := os.Stat(audioPath); err != nil {
				return fmt.Errorf("read --audio %q: %w", audioPath, err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if err := runExportVoice(ctx, cfg.TTS, audioPath, outPath); err != nil {
				return err
			}

			printManifestEntry(cmd.OutOrStdout(), id, outPath, license)

			return nil
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "Input speaker audio WAV path")
	cmd.Flags().StringVar(&outPath, "out", "", "Output voice .safetensors path")
	cmd.Flags().StringVar(&id, "id", "custom-voice", "Voice ID for suggested manifest entry")
	cmd.Flags().StringVar(&license, "license", "unknown", "License label for suggested manifest entry")

	return cmd
}

func runExportVoice(ctx context.Context, tts config.TTSConfig, audioPath, outPath string) error {
	opts := &pockettts.ExportVoiceOptions{
		Config:         tts.CLIConfigPath,
		Quiet:          tts.Quiet,
		ExecutablePath: tts.CLIPath,
	}
	if !tts.Quiet {
		opts.LogWriter = os.Stderr
	}

	err := exportVoice(ctx, audioPath, outPath, opts)
	if err != nil {
		var notFound *pockettts.ErrExecutableNotFound
		if errors.As(err, &notFound) {
			return fmt.Errorf("export-voice requires the pocket-tts CLI on PATH or --tts-cli-path: %w", err)
		}

		return err
	}

	return nil
}

func printManifestEntry(out io.Writer, id, path, license string) {
	_, _ = fmt.Fprintln(out, "export-voice completed")
	_, _ = fmt.Fprintf(out, "Suggested manifest entry:\n")
	_, _ = fmt.Fprintf(out, "{\"id\":%q,\"path\":%q,\"license\":%q}\n", id, path, license)
}
