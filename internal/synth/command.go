package synth

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const (
	CommandName = "command"

	DefaultCommand     = "say"
	DefaultCommandRate = 200
)

type CommandOptions struct {
	ExecutablePath  string
	Voice           string
	PreferredVoices []string
	Rate            int
	Logger          *slog.Logger
}

// CommandBackend shells out to a say(1)-compatible command:
//
//	<exe> -v <voice> -r <rate> -o <dest> <text>
//
// The command writes AIFF, which the decoder picks up through its fallback.
type CommandBackend struct {
	exe    string
	voice  string
	rate   int
	logger *slog.Logger
}

func NewCommandBackend(opts CommandOptions) (*CommandBackend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exe := opts.ExecutablePath
	if exe == "" {
		exe = DefaultCommand
	}

	rate := opts.Rate
	if rate <= 0 {
		rate = DefaultCommandRate
	}

	b := &CommandBackend{exe: exe, voice: strings.TrimSpace(opts.Voice), rate: rate, logger: logger}

	if b.voice == "" {
		voices, err := b.ListVoices(context.Background())
		if err != nil {
			return nil, fmt.Errorf("list %s voices: %w", exe, err)
		}

		v, err := SelectVoice(voices, DefaultRules("", opts.PreferredVoices)...)
		if err != nil {
			return nil, err
		}

		b.voice = v.ID
	}

	logger.Info("command backend ready", "exe", exe, "voice", b.voice, "rate", rate)

	return b, nil
}

func (c *CommandBackend) Name() string { return CommandName }

func (c *CommandBackend) Extension() string { return ".aiff" }

// Voice returns the configured voice name.
func (c *CommandBackend) Voice() Voice { return Voice{ID: c.voice} }

func (c *CommandBackend) Synthesize(ctx context.Context, text, dest string) (Result, error) {
	spoken, err := checkRequest(CommandName, text, dest)
	if err != nil {
		return Result{}, err
	}

	// Text goes through a file so phrases starting with "-" are never parsed
	// as options.
	input := dest + ".txt"
	if err := os.WriteFile(input, []byte(spoken), 0o600); err != nil {
		return Result{}, &SynthesisError{Text: text, Backend: CommandName, Err: fmt.Errorf("write text input: %w", err)}
	}
	defer os.Remove(input)

	args := []string{"-v", c.voice, "-r", strconv.Itoa(c.rate), "-o", dest, "-f", input}
	cmd := exec.CommandContext(ctx, c.exe, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}

		return Result{}, &SynthesisError{Text: text, Backend: CommandName, Err: err}
	}

	return checkOutput(CommandName, text, dest)
}

// ListVoices runs `<exe> -v ?` and parses its listing.
func (c *CommandBackend) ListVoices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, c.exe, "-v", "?").Output()
	if err != nil {
		return nil, err
	}

	return parseVoiceList(out), nil
}

// parseVoiceList reads lines of the form
//
//	Samantha            en_US    # Hello, my name is Samantha.
//
// Voice names may contain spaces; the locale is the last field before '#'.
func parseVoiceList(out []byte) []Voice {
	var voices []Voice

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		switch len(fields) {
		case 0:
			continue
		case 1:
			voices = append(voices, Voice{ID: fields[0]})
		default:
			voices = append(voices, Voice{
				ID:     strings.Join(fields[:len(fields)-1], " "),
				Locale: fields[len(fields)-1],
			})
		}
	}

	return voices
}
