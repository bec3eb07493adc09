package audio

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeWAV_RoundTrip(t *testing.T) {
	in := Buffer{SampleRate: 44100, Channels: 1, Samples: []float32{0, 0.5, -0.5, 0.25}}

	data, err := EncodeWAV(in)
	if err != nil {
		t.Fatalf("EncodeWAV error: %v", err)
	}

	out, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV error: %v", err)
	}
	if out.SampleRate != 44100 || out.Channels != 1 {
		t.Fatalf("format = %d Hz %d ch; want 44100 Hz 1 ch", out.SampleRate, out.Channels)
	}
	if out.Frames() != in.Frames() {
		t.Fatalf("frames = %d; want %d", out.Frames(), in.Frames())
	}
	for i := range in.Samples {
		if math.Abs(float64(out.Samples[i]-in.Samples[i])) > 1e-3 {
			t.Errorf("sample[%d] = %f; want ~%f", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestEncodeWAV_RejectsInvalidBuffer(t *testing.T) {
	if _, err := EncodeWAV(Buffer{SampleRate: 0, Channels: 1}); err == nil {
		t.Error("expected error for invalid buffer")
	}
}

func TestMemFile_SeekAndOverwrite(t *testing.T) {
	var f memFile

	if _, err := f.Write([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("XY")); err != nil {
		t.Fatal(err)
	}
	if pos, _ := f.Seek(0, io.SeekCurrent); pos != 4 {
		t.Errorf("position = %d; want 4", pos)
	}
	if _, err := f.Seek(2, io.SeekEnd); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("Z")); err != nil {
		t.Fatal(err)
	}

	if got := string(f.data); got != "abXYef\x00\x00Z" {
		t.Errorf("data = %q", got)
	}
	if _, err := f.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error seeking before start")
	}
}

func TestWriteWAV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	in := Buffer{SampleRate: 44100, Channels: 1, Samples: []float32{0.25, -0.25}}
	if err := WriteWAV(fh, in); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	out, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if out.Frames() != 2 {
		t.Errorf("frames = %d; want 2", out.Frames())
	}
}
