package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/aiff"
)

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE

	// unknownChunkSize marks a streamed WAV whose RIFF/data sizes were never
	// patched; the data chunk then runs to the end of the file.
	unknownChunkSize = 0xFFFFFFFF
)

var (
	// ErrUnknownContainer is returned when no decoder recognizes the file header.
	ErrUnknownContainer = errors.New("unrecognized audio container")
	// ErrNoFrames is returned when a file decodes to zero audio frames.
	ErrNoFrames = errors.New("audio contains no frames")

	errFallbackSkipped = errors.New("not attempted")
)

// DecodeError is returned by DecodeFile when both the primary and the
// fallback decoder failed. Both causes stay reachable through errors.Is/As.
type DecodeError struct {
	Path     string
	Primary  error
	Fallback error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: primary: %v; fallback: %v", e.Path, e.Primary, e.Fallback)
}

func (e *DecodeError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// DecodeFile reads path and decodes it. The strict PCM WAV decoder runs first;
// if it fails, DecodeAny is tried once.
func DecodeFile(path string) (Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Buffer{}, &DecodeError{Path: path, Primary: err, Fallback: errFallbackSkipped}
	}

	buf, err := DecodeBytes(data)
	if err != nil {
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			decErr.Path = path
		}

		return Buffer{}, err
	}

	return buf, nil
}

// DecodeBytes is DecodeFile for audio already in memory.
func DecodeBytes(data []byte) (Buffer, error) {
	buf, primaryErr := DecodeWAV(data)
	if primaryErr == nil {
		return buf, nil
	}

	buf, fallbackErr := DecodeAny(data)
	if fallbackErr != nil {
		return Buffer{}, &DecodeError{Path: "<memory>", Primary: primaryErr, Fallback: fallbackErr}
	}

	return buf, nil
}

// DecodeWAV decodes integer PCM WAV bytes into a Buffer at the file's own
// sample rate and channel count.
func DecodeWAV(data []byte) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{}, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Buffer{}, errors.New("invalid WAV file")
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return Buffer{}, fmt.Errorf("unsupported WAV encoding %#x (want PCM)", dec.WavAudioFormat)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return Buffer{}, fmt.Errorf("unsupported bit depth %d", dec.BitDepth)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("reading PCM data: %w", err)
	}

	buf := Buffer{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    pcm.Data,
	}
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	if buf.Frames() == 0 {
		return Buffer{}, ErrNoFrames
	}

	return buf, nil
}

// DecodeAny inspects the container header and decodes AIFF/AIFF-C or any
// RIFF/WAVE variant (integer PCM, IEEE float, extensible, streamed sizes).
func DecodeAny(data []byte) (Buffer, error) {
	if len(data) < 12 {
		return Buffer{}, fmt.Errorf("%w: %d bytes", ErrUnknownContainer, len(data))
	}

	var (
		buf Buffer
		err error
	)
	switch {
	case string(data[0:4]) == "FORM" && (string(data[8:12]) == "AIFF" || string(data[8:12]) == "AIFC"):
		buf, err = decodeAIFF(data)
	case string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		buf, err = decodeRIFF(data)
	default:
		return Buffer{}, fmt.Errorf("%w: header %q", ErrUnknownContainer, data[0:4])
	}
	if err != nil {
		return Buffer{}, err
	}
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	if buf.Frames() == 0 {
		return Buffer{}, ErrNoFrames
	}

	return buf, nil
}

func decodeAIFF(data []byte) (Buffer, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Buffer{}, errors.New("invalid AIFF file")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("reading AIFF PCM data: %w", err)
	}
	pcm.SourceBitDepth = int(dec.BitDepth)
	f32 := pcm.AsFloat32Buffer()

	return Buffer{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Samples:    f32.Data,
	}, nil
}

type wavFormat struct {
	tag        uint16
	channels   int
	sampleRate int
	bitDepth   int
}

// decodeRIFF walks the chunk list directly instead of trusting the RIFF size.
func decodeRIFF(data []byte) (Buffer, error) {
	var (
		format  *wavFormat
		payload []byte
	)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		end := len(data)
		if size != unknownChunkSize && body+int(size) <= len(data) {
			end = body + int(size)
		}

		switch id {
		case "fmt ":
			f, err := parseFmtChunk(data[body:end])
			if err != nil {
				return Buffer{}, err
			}
			format = &f
		case "data":
			payload = data[body:end]
		}

		if payload != nil && format != nil {
			break
		}

		offset = end
		if size%2 != 0 && size != unknownChunkSize {
			offset++
		}
	}

	if format == nil {
		return Buffer{}, errors.New("WAV: fmt chunk not found")
	}
	if payload == nil {
		return Buffer{}, errors.New("WAV: data chunk not found")
	}

	samples, err := decodeSamples(payload, *format)
	if err != nil {
		return Buffer{}, err
	}

	return Buffer{SampleRate: format.sampleRate, Channels: format.channels, Samples: samples}, nil
}

func parseFmtChunk(b []byte) (wavFormat, error) {
	if len(b) < 16 {
		return wavFormat{}, fmt.Errorf("WAV: fmt chunk too short (%d bytes)", len(b))
	}

	f := wavFormat{
		tag:        binary.LittleEndian.Uint16(b[0:2]),
		channels:   int(binary.LittleEndian.Uint16(b[2:4])),
		sampleRate: int(binary.LittleEndian.Uint32(b[4:8])),
		bitDepth:   int(binary.LittleEndian.Uint16(b[14:16])),
	}

	if f.tag == wavFormatExtensible {
		// cbSize(2) validBits(2) channelMask(4) then the sub-format GUID whose
		// first two bytes carry the real format tag.
		if len(b) < 26 {
			return wavFormat{}, errors.New("WAV: truncated extensible fmt chunk")
		}
		f.tag = binary.LittleEndian.Uint16(b[24:26])
	}

	return f, nil
}

func decodeSamples(p []byte, f wavFormat) ([]float32, error) {
	width := f.bitDepth / 8
	if width < 1 || f.bitDepth%8 != 0 {
		return nil, fmt.Errorf("WAV: unsupported bit depth %d", f.bitDepth)
	}

	n := len(p) / width
	out := make([]float32, n)

	switch {
	case f.tag == wavFormatPCM && width == 1:
		for i := range out {
			out[i] = (float32(p[i]) - 128) / 128
		}
	case f.tag == wavFormatPCM && width == 2:
		for i := range out {
			out[i] = float32(int16(binary.LittleEndian.Uint16(p[i*2:]))) / 32768
		}
	case f.tag == wavFormatPCM && width == 3:
		for i := range out {
			j := i * 3
			v := int32(uint32(p[j])<<8|uint32(p[j+1])<<16|uint32(p[j+2])<<24) >> 8
			out[i] = float32(v) / 8388608
		}
	case f.tag == wavFormatPCM && width == 4:
		for i := range out {
			out[i] = float32(float64(int32(binary.LittleEndian.Uint32(p[i*4:]))) / 2147483648)
		}
	case f.tag == wavFormatIEEEFloat && width == 4:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		}
	case f.tag == wavFormatIEEEFloat && width == 8:
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(p[i*8:])))
		}
	default:
		return nil, fmt.Errorf("WAV: unsupported encoding %#x at %d bits", f.tag, f.bitDepth)
	}

	if f.channels > 0 {
		out = out[:len(out)/f.channels*f.channels]
	}

	return out, nil
}
