package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAVPCM16_InvalidFormat(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
	}{
		{"zero rate", 0, 1},
		{"negative rate", -1, 1},
		{"zero channels", 44100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeWAVPCM16([]float32{0.1}, tt.sampleRate, tt.channels)
			if err == nil {
				t.Errorf("EncodeWAVPCM16(rate=%d, ch=%d) = nil; want error", tt.sampleRate, tt.channels)
			}
		})
	}
}

func TestEncodeWAVPCM16_Header(t *testing.T) {
	data, err := EncodeWAVPCM16([]float32{0, 0.5, -0.5, 1}, 16000, 2)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16 error = %v", err)
	}

	if !bytes.HasPrefix(data, []byte("RIFF")) || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 2 {
		t.Errorf("channels in header = %d; want 2", got)
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Errorf("sample rate in header = %d; want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 8 {
		t.Errorf("data size = %d; want 8", got)
	}
	if len(data) != 44+8 {
		t.Errorf("len = %d; want 52", len(data))
	}
}

func TestEncodeWAVPCM16_Clamping(t *testing.T) {
	data, err := EncodeWAVPCM16([]float32{2.0, -2.0}, 44100, 1)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16 error = %v", err)
	}

	v1 := int16(binary.LittleEndian.Uint16(data[44:46]))
	v2 := int16(binary.LittleEndian.Uint16(data[46:48]))
	if v1 != 32767 || v2 != -32767 {
		t.Errorf("clamped = %d, %d; want 32767, -32767", v1, v2)
	}
}

func TestWriteStreamingHeader(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteStreamingHeader(&buf, 22050, 1); err != nil {
		t.Fatalf("WriteStreamingHeader error: %v", err)
	}
	if buf.Len() != 44 {
		t.Fatalf("wrote %d bytes; want 44", buf.Len())
	}

	hdr := buf.Bytes()
	if got := binary.LittleEndian.Uint32(hdr[4:8]); got != 0xFFFFFFFF {
		t.Errorf("RIFF size = %#x; want 0xFFFFFFFF", got)
	}
	if got := binary.LittleEndian.Uint32(hdr[40:44]); got != 0xFFFFFFFF {
		t.Errorf("data size = %#x; want 0xFFFFFFFF", got)
	}
	if got := binary.LittleEndian.Uint32(hdr[24:28]); got != 22050 {
		t.Errorf("sample rate = %d; want 22050", got)
	}
}
