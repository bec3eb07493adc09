// Package testutil provides shared skip helpers and audio fixtures for tests.
//
// Each Require helper calls t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestSayIntegration(t *testing.T) {
//	    exe := testutil.RequireSay(t)
//	    ...
//	}
package testutil

import (
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/example/cuegen/internal/audio"
)

// RequirePocketTTS skips the test if the pocket-tts binary is not found in
// PATH or the path given by the CUEGEN_TTS_CLI_PATH environment variable.
// It returns the resolved executable.
func RequirePocketTTS(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv("CUEGEN_TTS_CLI_PATH")
	if exe == "" {
		exe = "pocket-tts"
	}

	return RequireCommand(tb, exe, "set CUEGEN_TTS_CLI_PATH to override")
}

// RequireSay skips the test unless a say(1) command is available.
func RequireSay(tb testing.TB) string {
	tb.Helper()

	return RequireCommand(tb, "say", "the command backend needs macOS say or a compatible wrapper")
}

// RequireCommand skips the test if exe cannot be resolved on PATH.
func RequireCommand(tb testing.TB, exe, hint string) string {
	tb.Helper()

	p, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("%q not available in PATH; %s", exe, hint)
		return ""
	}

	return p
}

// Tone returns a sine tone at 440 Hz with the given format.
func Tone(sampleRate, channels int, seconds, amplitude float64) audio.Buffer {
	frames := int(math.Round(seconds * float64(sampleRate)))
	samples := make([]float32, frames*channels)

	for f := range frames {
		v := float32(amplitude * math.Sin(2*math.Pi*440*float64(f)/float64(sampleRate)))
		for c := range channels {
			samples[f*channels+c] = v
		}
	}

	return audio.Buffer{SampleRate: sampleRate, Channels: channels, Samples: samples}
}

// WriteToneWAV writes a 16-bit tone fixture into dir and returns its path.
func WriteToneWAV(tb testing.TB, dir, name string, sampleRate, channels int, seconds float64) string {
	tb.Helper()

	b := Tone(sampleRate, channels, seconds, 0.5)

	data, err := EncodeWAVPCM16(b.Samples, b.SampleRate, b.Channels)
	if err != nil {
		tb.Fatalf("encode tone fixture: %v", err)
	}

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		tb.Fatalf("write tone fixture: %v", err)
	}

	return p
}
