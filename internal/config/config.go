package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Output   OutputConfig `mapstructure:"output"`
	TTS      TTSConfig    `mapstructure:"tts"`
	Assets   AssetsConfig `mapstructure:"assets"`
	LogLevel string       `mapstructure:"log_level"`
}

type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	TempDir string `mapstructure:"temp_dir"`
}

type TTSConfig struct {
	Backend         string   `mapstructure:"backend"`
	Voice           string   `mapstructure:"voice"`
	Rate            int      `mapstructure:"rate"`
	Volume          float64  `mapstructure:"volume"`
	CLIPath         string   `mapstructure:"cli_path"`
	CLIConfigPath   string   `mapstructure:"cli_config_path"`
	Quiet           bool     `mapstructure:"quiet"`
	VoiceManifest   string   `mapstructure:"voice_manifest"`
	PreferredVoices []string `mapstructure:"preferred_voices"`
}

type AssetsConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Output: OutputConfig{
			Dir:     "assets/audio",
			TempDir: "",
		},
		TTS: TTSConfig{
			Backend:         BackendEngine,
			Voice:           "",
			Rate:            0,
			Volume:          0.8,
			CLIPath:         "",
			CLIConfigPath:   "",
			Quiet:           true,
			VoiceManifest:   "voices/manifest.json",
			PreferredVoices: []string{"female", "zira", "samantha", "alba"},
		},
		Assets: AssetsConfig{
			Dir:     "assets/models",
			Timeout: 5 * time.Minute,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("output-dir", defaults.Output.Dir, "Directory for generated cue files")
	fs.String("output-temp-dir", defaults.Output.TempDir, "Directory for intermediate synthesis files (default: system temp)")
	fs.String("tts-backend", defaults.TTS.Backend, "Synthesis backend: engine|command")
	fs.String("tts-voice", defaults.TTS.Voice, "Voice name or manifest voice id (empty: pick by preference)")
	fs.Int("tts-rate", defaults.TTS.Rate, "Speech rate in words per minute (0: backend default)")
	fs.Float64("tts-volume", defaults.TTS.Volume, "Output volume 0.0-1.0 (engine backend)")
	fs.String("tts-cli-path", defaults.TTS.CLIPath, "Path to the synthesis executable (pocket-tts or say)")
	fs.String("tts-cli-config-path", defaults.TTS.CLIConfigPath, "Path to pocket-tts config file")
	fs.Bool("tts-quiet", defaults.TTS.Quiet, "Pass --quiet to pocket-tts generate")
	fs.String("tts-voice-manifest", defaults.TTS.VoiceManifest, "Voice manifest JSON for custom engine voices")
	fs.StringSlice("tts-preferred-voices", defaults.TTS.PreferredVoices, "Voice name hints tried in order when no voice is set")
	fs.String("assets-dir", defaults.Assets.Dir, "Directory for downloaded model assets")
	fs.Duration("assets-timeout", defaults.Assets.Timeout, "Per-download timeout")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("CUEGEN")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("cuegen")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	backend, err := NormalizeBackend(cfg.TTS.Backend)
	if err != nil {
		return Config{}, err
	}
	cfg.TTS.Backend = backend

	if cfg.TTS.Volume < 0 || cfg.TTS.Volume > 1 {
		return Config{}, fmt.Errorf("tts.volume %.2f out of range [0, 1]", cfg.TTS.Volume)
	}

	if cfg.TTS.Rate < 0 {
		return Config{}, fmt.Errorf("tts.rate must not be negative, got %d", cfg.TTS.Rate)
	}

	return cfg, nil
}

// ParseLogLevel maps a level name to its slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("output.dir", c.Output.Dir)
	v.SetDefault("output.temp_dir", c.Output.TempDir)
	v.SetDefault("tts.backend", c.TTS.Backend)
	v.SetDefault("tts.voice", c.TTS.Voice)
	v.SetDefault("tts.rate", c.TTS.Rate)
	v.SetDefault("tts.volume", c.TTS.Volume)
	v.SetDefault("tts.cli_path", c.TTS.CLIPath)
	v.SetDefault("tts.cli_config_path", c.TTS.CLIConfigPath)
	v.SetDefault("tts.quiet", c.TTS.Quiet)
	v.SetDefault("tts.voice_manifest", c.TTS.VoiceManifest)
	v.SetDefault("tts.preferred_voices", c.TTS.PreferredVoices)
	v.SetDefault("assets.dir", c.Assets.Dir)
	v.SetDefault("assets.timeout", c.Assets.Timeout)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps config keys to the flags that set them.
var flagKeys = []struct {
	key  string
	flag string
}{
	{"output.dir", "output-dir"},
	{"output.temp_dir", "output-temp-dir"},
	{"tts.backend", "tts-backend"},
	{"tts.voice", "tts-voice"},
	{"tts.rate", "tts-rate"},
	{"tts.volume", "tts-volume"},
	{"tts.cli_path", "tts-cli-path"},
	{"tts.cli_config_path", "tts-cli-config-path"},
	{"tts.quiet", "tts-quiet"},
	{"tts.voice_manifest", "tts-voice-manifest"},
	{"tts.preferred_voices", "tts-preferred-voices"},
	{"assets.dir", "assets-dir"},
	{"assets.timeout", "assets-timeout"},
	{"log_level", "log-level"},
}

// bindFlags binds each registered flag to its nested key so flag, env and
// config file values all resolve through the same key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, fk := range flagKeys {
		f := fs.Lookup(fk.flag)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(fk.key, f); err != nil {
			return fmt.Errorf("%s: %w", fk.flag, err)
		}
	}

	return nil
}
