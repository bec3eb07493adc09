package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	pockettts "github.com/MeKo-Christian/go-call-pocket-tts"
	"github.com/spf13/cobra"

	"github.com/example/cuegen/internal/config"
	"github.com/example/cuegen/internal/doctor"
	"github.com/example/cuegen/internal/synth"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the synthesis backend and output directories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg, err := doctorConfig(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "backend: %s\n", dcfg.Backend)

			result := doctor.Run(dcfg, out)
			if dcfg.Backend == config.BackendEngine {
				checkVoiceManifest(cfg.TTS.VoiceManifest, &result, out)
			}

			return reportDoctor(result, out, cmd.ErrOrStderr())
		},
	}
}

func doctorConfig(cfg config.Config) (doctor.Config, error) {
	backend, err := config.NormalizeBackend(cfg.TTS.Backend)
	if err != nil {
		return doctor.Config{}, err
	}

	dcfg := doctor.Config{
		Backend:      backend,
		WritableDirs: []string{cfg.Output.Dir},
	}
	if cfg.Output.TempDir != "" {
		dcfg.WritableDirs = append(dcfg.WritableDirs, cfg.Output.TempDir)
	}

	switch backend {
	case config.BackendCommand:
		exe := cfg.TTS.CLIPath
		if exe == "" {
			exe = synth.DefaultCommand
		}

		dcfg.BackendVersion = func() (string, error) { return exec.LookPath(exe) }
		dcfg.SkipPython = true
	default:
		exe := cfg.TTS.CLIPath
		if exe == "" {
			exe = "pocket-tts"
		}

		dcfg.BackendVersion = func() (string, error) { return probePocketTTS(exe) }
		dcfg.PythonVersion = probePythonVersion
		dcfg.VoiceFiles = collectVoiceFiles(cfg.TTS.VoiceManifest)
	}

	return dcfg, nil
}

func reportDoctor(result doctor.Result, out, errOut io.Writer) error {
	if result.Failed() {
		for _, f := range result.Failures() {
			_, _ = fmt.Fprintf(errOut, "FAIL: %s\n", f)
		}

		return errors.New("doctor checks failed")
	}

	_, _ = fmt.Fprintln(out, "doctor checks passed")

	return nil
}

// checkVoiceManifest reports a manifest that exists but cannot be loaded.
// A missing manifest only means no custom voices are configured.
func checkVoiceManifest(path string, result *doctor.Result, out io.Writer) {
	if path == "" {
		return
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintf(out, "%s voice manifest: skipped (no manifest at %s)\n", doctor.PassMark, path)
		return
	}

	if _, err := synth.NewVoiceManager(path); err != nil {
		result.AddFailure(fmt.Sprintf("voice manifest: %v", err))
		_, _ = fmt.Fprintf(out, "%s voice manifest: %v\n", doctor.FailMark, err)

		return
	}

	_, _ = fmt.Fprintf(out, "%s voice manifest: %s\n", doctor.PassMark, path)
}

// probePocketTTS resolves the executable and returns its --version output.
func probePocketTTS(exe string) (string, error) {
	if err := pockettts.Preflight(exe); err != nil {
		return "", err
	}

	out, err := exec.CommandContext(context.Background(), exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", exe, err)
	}

	return strings.TrimSpace(string(out)), nil
}

// probePythonVersion tries python3 then python and returns the version string.
func probePythonVersion() (string, error) {
	for _, bin := range []string{"python3", "python"} {
		out, err := exec.CommandContext(context.Background(), bin, "--version").Output()
		if err != nil {
			continue
		}

		raw := strings.TrimPrefix(strings.TrimSpace(string(out)), "Python ")
		if raw != "" {
			return raw, nil
		}
	}

	return "", errors.New("python3/python not found on PATH")
}

// collectVoiceFiles returns absolute paths of the manifest's voice files.
// Paths are resolved relative to the manifest, not the working directory.
func collectVoiceFiles(manifestPath string) []string {
	vm, err := synth.NewVoiceManager(manifestPath)
	if err != nil {
		return nil
	}

	voices := vm.ListVoices()

	paths := make([]string, 0, len(voices))
	for _, v := range voices {
		resolved, err := vm.ResolvePath(v.ID)
		if err != nil {
			paths = append(paths, v.Path)
			continue
		}

		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}

		paths = append(paths, resolved)
	}

	return paths
}
