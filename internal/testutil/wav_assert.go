package testutil

import (
	"encoding/binary"
	"fmt"
	"testing"
)

// Properties every exported cue must have.
const (
	CueSampleRate = 44100
	CueChannels   = 1
	CueBitDepth   = 16
)

type cueFormat struct {
	tag        uint16
	channels   uint16
	sampleRate uint32
	bits       uint16
	dataBytes  uint32
}

// readCueFormat walks the RIFF chunk list and pulls the fmt fields and the
// data chunk length.
func readCueFormat(data []byte) (cueFormat, error) {
	var f cueFormat

	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return f, fmt.Errorf("not a RIFF/WAVE file (%d bytes)", len(data))
	}

	var sawFmt, sawData bool

	for pos := 12; pos+8 <= len(data) && !sawData; {
		id := string(data[pos : pos+4])
		size := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
		body := data[pos+8:]

		switch id {
		case "fmt ":
			if size < 16 || len(body) < 16 {
				return f, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}

			f.tag = binary.LittleEndian.Uint16(body[0:2])
			f.channels = binary.LittleEndian.Uint16(body[2:4])
			f.sampleRate = binary.LittleEndian.Uint32(body[4:8])
			f.bits = binary.LittleEndian.Uint16(body[14:16])
			sawFmt = true
		case "data":
			f.dataBytes = size
			sawData = true
		}

		pos += 8 + int(size) + int(size&1)
	}

	switch {
	case !sawFmt:
		return f, fmt.Errorf("no fmt chunk")
	case !sawData:
		return f, fmt.Errorf("no data chunk")
	}

	return f, nil
}

// AssertValidCue fails tb unless data is a non-empty 16-bit PCM mono WAV at
// 44100 Hz.
func AssertValidCue(tb testing.TB, data []byte) {
	tb.Helper()

	f, err := readCueFormat(data)
	if err != nil {
		tb.Fatalf("cue WAV: %v", err)
	}

	if f.tag != 1 {
		tb.Fatalf("cue WAV: format tag %d, want PCM", f.tag)
	}
	if f.channels != CueChannels || f.sampleRate != CueSampleRate || f.bits != CueBitDepth {
		tb.Fatalf("cue WAV: %d ch %d Hz %d-bit, want %d ch %d Hz %d-bit",
			f.channels, f.sampleRate, f.bits, CueChannels, CueSampleRate, CueBitDepth)
	}
	if f.dataBytes < 2 {
		tb.Fatal("cue WAV: no samples")
	}
}

// CueDurationMS returns the playing time of a finished cue, truncated to
// whole milliseconds.
func CueDurationMS(tb testing.TB, data []byte) int64 {
	tb.Helper()

	f, err := readCueFormat(data)
	if err != nil {
		tb.Fatalf("cue WAV: %v", err)
	}

	frames := int64(f.dataBytes) / (CueBitDepth / 8 * CueChannels)

	return frames * 1000 / CueSampleRate
}
