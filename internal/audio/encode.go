package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// OutputBitDepth is the PCM sample width of every exported clip.
const OutputBitDepth = 16

// WriteWAV encodes b into w as 16-bit PCM WAV at the buffer's own rate and
// channel count. The encoder seeks back to patch chunk sizes on close; w is
// not closed.
func WriteWAV(w io.WriteSeeker, b Buffer) error {
	if err := b.Validate(); err != nil {
		return err
	}

	enc := wav.NewEncoder(w, b.SampleRate, OutputBitDepth, b.Channels, wavFormatPCM)

	pcm := &goaudio.Float32Buffer{
		Data:           b.Samples,
		Format:         &goaudio.Format{SampleRate: b.SampleRate, NumChannels: b.Channels},
		SourceBitDepth: OutputBitDepth,
	}

	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing encoder: %w", err)
	}

	return nil
}

// EncodeWAV is WriteWAV into memory.
func EncodeWAV(b Buffer) ([]byte, error) {
	var f memFile
	if err := WriteWAV(&f, b); err != nil {
		return nil, err
	}

	return f.data, nil
}

// memFile is an in-memory io.WriteSeeker. Writes past the end grow it.
type memFile struct {
	data []byte
	off  int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.off + int64(len(p))
	if end > int64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-int64(len(m.data)))...)
	}

	copy(m.data[m.off:end], p)
	m.off = end

	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int64

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = m.off
	case io.SeekEnd:
		base = int64(len(m.data))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}

	if base+offset < 0 {
		return 0, errors.New("seek before start")
	}

	m.off = base + offset

	return m.off, nil
}
