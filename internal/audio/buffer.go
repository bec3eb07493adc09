package audio

import (
	"errors"
	"fmt"
)

// ErrInvalidBuffer is returned when a Buffer's format fields are unusable.
var ErrInvalidBuffer = errors.New("invalid audio buffer")

// Buffer is an in-memory block of interleaved float32 PCM frames.
//
// Samples are nominally in [-1, 1]. Functions in this package treat a Buffer
// as a value: they return new Buffers and never write into the Samples slice
// they were given.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames (samples per channel).
func (b Buffer) Frames() int {
	if b.Channels < 1 {
		return 0
	}

	return len(b.Samples) / b.Channels
}

// DurationMS returns the buffer length in whole milliseconds (rounded down).
func (b Buffer) DurationMS() int64 {
	if b.SampleRate < 1 {
		return 0
	}

	return int64(b.Frames()) * 1000 / int64(b.SampleRate)
}

// Validate reports whether the buffer's format is consistent.
func (b Buffer) Validate() error {
	if b.SampleRate < 1 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidBuffer, b.SampleRate)
	}
	if b.Channels < 1 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidBuffer, b.Channels)
	}
	if len(b.Samples)%b.Channels != 0 {
		return fmt.Errorf("%w: %d samples is not a multiple of %d channels", ErrInvalidBuffer, len(b.Samples), b.Channels)
	}

	return nil
}

// Peak returns the largest absolute sample value.
func (b Buffer) Peak() float32 {
	return peak(b.Samples)
}

func (b Buffer) clone() Buffer {
	out := b
	out.Samples = append([]float32(nil), b.Samples...)

	return out
}
