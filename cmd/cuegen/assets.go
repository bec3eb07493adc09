package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/cuegen/internal/assets"
)

func newAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage model assets bundled with the app",
	}

	cmd.AddCommand(newAssetsFetchCmd())

	return cmd
}

func newAssetsFetchCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the pose-estimation models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			out := cmd.OutOrStdout()

			summary, err := assets.FetchAll(ctx, assets.DefaultManifest(), assets.FetchOptions{
				Dir:     cfg.Assets.Dir,
				Timeout: cfg.Assets.Timeout,
				Force:   force,
				Stdout:  out,
				Logger:  slog.Default(),
			})
			if err != nil {
				return err
			}

			printAssetSummary(out, summary)

			if !summary.OK() {
				return fmt.Errorf("%d of %d assets could not be downloaded", len(summary.Results)-summary.Downloaded(), len(summary.Results))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Download assets that already exist")

	return cmd
}

func printAssetSummary(out io.Writer, summary assets.Summary) {
	_, _ = fmt.Fprintln(out, "\nDownload summary:")

	for _, r := range summary.Results {
		line := fmt.Sprintf("  %-12s %-26s %s", r.Status, r.Asset.Filename, assets.HumanSize(r.Size))
		if r.Err != nil {
			line += fmt.Sprintf(" (%v)", r.Err)
		}

		_, _ = fmt.Fprintln(out, line)
	}

	_, _ = fmt.Fprintf(out, "  Successful: %d/%d\n", summary.Downloaded(), len(summary.Results))
	_, _ = fmt.Fprintf(out, "Models are located in: %s\n", summary.Dir)
}
