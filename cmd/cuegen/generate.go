package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/cuegen/internal/config"
	"github.com/example/cuegen/internal/cue"
)

func newGenerateCmd() *cobra.Command {
	var skipProbe bool
	var testOnly bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the timer cue catalogue into the output directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			gen, err := buildGenerator(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if testOnly {
				return runProbe(ctx, gen, out)
			}

			_, _ = fmt.Fprintf(out, "Generating timer cues into %s\n", cfg.Output.Dir)
			_, _ = fmt.Fprintln(out, strings.Repeat("=", 50))

			report := gen.Run(ctx, cue.DefaultCatalogue())
			printReport(out, report)

			if err := printGeneratedFiles(out, cfg.Output.Dir); err != nil {
				slog.Warn("list generated files", "error", err)
			}

			if !skipProbe {
				// A failed probe is reported but does not change the exit status.
				_ = runProbe(ctx, gen, out)
			}

			if !report.OK() {
				return fmt.Errorf("%d of %d cues failed", report.Failed, len(report.Outcomes))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipProbe, "skip-probe", false, "Do not render the listening test after the batch")
	cmd.Flags().BoolVar(&testOnly, "test-only", false, "Only render the listening test")

	return cmd
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Render the listening test clip through the full pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			gen, err := buildGenerator(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			return runProbe(ctx, gen, cmd.OutOrStdout())
		},
	}
}

func buildGenerator(cfg config.Config) (*cue.Generator, error) {
	logger := slog.Default()

	backend, err := newBackend(cfg.TTS, logger)
	if err != nil {
		return nil, err
	}

	return cue.NewGenerator(cue.Options{
		OutputDir: cfg.Output.Dir,
		TempDir:   cfg.Output.TempDir,
		Backend:   backend,
		Logger:    logger,
	})
}

func runProbe(ctx context.Context, gen *cue.Generator, out io.Writer) error {
	_, _ = fmt.Fprintln(out, "\nGenerating test audio...")

	o := gen.Probe(ctx)
	if !o.Success {
		_, _ = fmt.Fprintf(out, "  test audio failed: %s\n", o.ErrorDetail())
		return fmt.Errorf("probe failed: %s", o.ErrorDetail())
	}

	_, _ = fmt.Fprintf(out, "  Saved: %s (%.1fs)\n", o.Path, float64(o.DurationMS)/1000)
	_, _ = fmt.Fprintf(out, "Play %q to verify quality.\n", filepath.Base(o.Path))

	return nil
}

func printReport(out io.Writer, report cue.Report) {
	for _, o := range report.Outcomes {
		if o.Success {
			_, _ = fmt.Fprintf(out, "  ok   %-16s %5d ms  %s\n", o.Key, o.DurationMS, o.Path)
			continue
		}

		_, _ = fmt.Fprintf(out, "  FAIL %-16s %s\n", o.Key, o.ErrorDetail())
	}

	_, _ = fmt.Fprintln(out, strings.Repeat("=", 50))
	_, _ = fmt.Fprintf(out, "%d succeeded, %d failed (run %s)\n", report.Succeeded, report.Failed, report.RunID)
}

// printGeneratedFiles lists the WAV files in dir with their sizes in bytes.
func printGeneratedFiles(out io.Writer, dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+cue.DefaultExtension))
	if err != nil {
		return err
	}

	sort.Strings(matches)

	_, _ = fmt.Fprintln(out, "\nGenerated files:")

	for _, p := range matches {
		fi, err := os.Stat(p)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "  %s (%s bytes)\n", filepath.Base(p), groupDigits(fi.Size()))
	}

	return nil
}

// groupDigits renders n with comma thousands separators.
func groupDigits(n int64) string {
	if n < 0 {
		return "-" + groupDigits(-n)
	}

	s := strconv.FormatInt(n, 10)

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return b.String()
}
