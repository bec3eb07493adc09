package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	pcmFormatTag     = 1
	unknownChunkSize = 0xFFFFFFFF
)

// pcm16Header is the canonical 44-byte header of a 16-bit PCM WAV.
type pcm16Header struct {
	RIFF       [4]byte
	RIFFSize   uint32
	WAVE       [4]byte
	Fmt        [4]byte
	FmtSize    uint32
	Format     uint16
	Channels   uint16
	SampleRate uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
	Data       [4]byte
	DataSize   uint32
}

func newPCM16Header(sampleRate, channels int, dataSize uint32) pcm16Header {
	riffSize := dataSize
	if dataSize != unknownChunkSize {
		riffSize = 36 + dataSize
	}

	return pcm16Header{
		RIFF:       [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize:   riffSize,
		WAVE:       [4]byte{'W', 'A', 'V', 'E'},
		Fmt:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:    16,
		Format:     pcmFormatTag,
		Channels:   uint16(channels),
		SampleRate: uint32(sampleRate),
		ByteRate:   uint32(sampleRate * channels * 2),
		BlockAlign: uint16(channels * 2),
		Bits:       16,
		Data:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:   dataSize,
	}
}

func checkPCMFormat(sampleRate, channels int) error {
	if sampleRate < 1 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels < 1 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}

	return nil
}

// EncodeWAVPCM16 writes interleaved samples as a 16-bit PCM WAV with a
// plain 44-byte header, the layout most engines emit.
func EncodeWAVPCM16(samples []float32, sampleRate, channels int) ([]byte, error) {
	if err := checkPCMFormat(sampleRate, channels); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(44 + 2*len(samples))

	if err := binary.Write(&buf, binary.LittleEndian, newPCM16Header(sampleRate, channels, uint32(2*len(samples)))); err != nil {
		return nil, err
	}
	if _, err := WritePCM16(&buf, samples); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// WriteStreamingHeader writes a PCM16 header whose RIFF and data sizes are
// 0xFFFFFFFF, the marker engines use when they pipe audio of unknown length.
// Follow it with WritePCM16.
func WriteStreamingHeader(w io.Writer, sampleRate, channels int) error {
	if err := checkPCMFormat(sampleRate, channels); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, newPCM16Header(sampleRate, channels, unknownChunkSize))
}

// WritePCM16 writes samples as little-endian int16, clamped to [-1, 1].
func WritePCM16(w io.Writer, samples []float32) (int, error) {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v*math.MaxInt16)))
	}

	return w.Write(out)
}
