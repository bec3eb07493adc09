package testutil_test

import (
	"testing"

	"github.com/example/cuegen/internal/audio"
	"github.com/example/cuegen/internal/testutil"
)

func TestRequirePocketTTS_SkipsWhenAbsent(t *testing.T) {
	t.Setenv("CUEGEN_TTS_CLI_PATH", "/nonexistent/pocket-tts-binary")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequirePocketTTS(fakeT)
	if !skipped {
		t.Error("expected RequirePocketTTS to skip when binary is absent")
	}
}

func TestRequireCommand_SkipsWhenAbsent(t *testing.T) {
	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	if got := testutil.RequireCommand(fakeT, "/nonexistent/say", "hint"); got != "" {
		t.Errorf("RequireCommand = %q; want empty", got)
	}
	if !skipped {
		t.Error("expected RequireCommand to skip when command is absent")
	}
}

func TestWriteToneWAV(t *testing.T) {
	p := testutil.WriteToneWAV(t, t.TempDir(), "tone.wav", 22050, 2, 0.5)

	buf, err := audio.DecodeFile(p)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	if buf.SampleRate != 22050 || buf.Channels != 2 || buf.DurationMS() != 500 {
		t.Errorf("fixture = %d Hz %d ch %d ms", buf.SampleRate, buf.Channels, buf.DurationMS())
	}
}

func TestAssertValidCue(t *testing.T) {
	tone := testutil.Tone(44100, 1, 0.25, 0.5)

	data, err := audio.EncodeWAV(tone)
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertValidCue(t, data)

	if got := testutil.CueDurationMS(t, data); got != 250 {
		t.Errorf("CueDurationMS = %d; want 250", got)
	}
}

// skipTracker is a minimal testing.TB implementation that intercepts Skip calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skipf(_ string, _ ...any) {
	s.onSkip()
	// Do NOT call s.TB.Skip, that would actually skip the outer test.
}
