package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/cuegen/internal/config"
	"github.com/example/cuegen/internal/synth"
)

var (
	cfgFile   string
	activeCfg config.Config
)

// newBackend is swapped in tests.
var newBackend = synth.New

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "cuegen",
		Short: "Generate spoken timer audio cues",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newProbeCmd())
	cmd.AddCommand(newVoicesCmd())
	cmd.AddCommand(newAssetsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newExportVoiceCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Output.Dir == "" {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}
