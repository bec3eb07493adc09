// Package clip turns a decoded speech buffer into a playback-ready cue clip.
//
// Process applies a fixed chain of stages. The order is part of the contract:
// the peak is measured on the whole rendering before truncation so that a
// clipped tail cannot raise the gain of the remaining audio.
package clip

import (
	"fmt"
	"math"

	"github.com/example/cuegen/internal/audio"
)

// Output format of every processed clip.
const (
	SampleRate = 44100
	Channels   = 1
)

const (
	// FadeMS is the length of the linear fade-in and fade-out ramps.
	FadeMS = 50
	// MinFadeMS is the duration a clip must exceed before fades are applied.
	MinFadeMS = 200
)

// Stage is one step of the post-processing chain. A stage returns a new
// Buffer and never modifies the one it receives.
type Stage struct {
	Name  string
	Apply func(audio.Buffer) (audio.Buffer, error)
}

// Stages returns the processing chain for a clip capped at maxDuration
// seconds (0 disables the cap).
func Stages(maxDuration float64) []Stage {
	return []Stage{
		{Name: "normalize", Apply: normalize},
		{Name: "truncate", Apply: func(b audio.Buffer) (audio.Buffer, error) { return truncate(b, maxDuration), nil }},
		{Name: "fold", Apply: fold},
		{Name: "resample", Apply: resample},
		{Name: "fade", Apply: fade},
	}
}

// Process runs buf through every stage. The result is always mono at
// SampleRate and never longer than the input or the cap.
func Process(buf audio.Buffer, maxDuration float64) (audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return audio.Buffer{}, err
	}
	if maxDuration < 0 || math.IsNaN(maxDuration) || math.IsInf(maxDuration, 0) {
		return audio.Buffer{}, fmt.Errorf("invalid duration cap %v", maxDuration)
	}

	out := buf
	for _, st := range Stages(maxDuration) {
		next, err := st.Apply(out)
		if err != nil {
			return audio.Buffer{}, fmt.Errorf("%s: %w", st.Name, err)
		}
		out = next
	}

	return out, nil
}

// CapMS converts a cap in seconds to whole milliseconds. Zero means no cap.
func CapMS(maxDuration float64) int64 {
	if maxDuration <= 0 {
		return 0
	}

	return int64(math.Round(maxDuration * 1000))
}

func normalize(b audio.Buffer) (audio.Buffer, error) {
	b.Samples = audio.PeakNormalize(b.Samples)
	return b, nil
}

func truncate(b audio.Buffer, maxDuration float64) audio.Buffer {
	limit := CapMS(maxDuration)
	if limit == 0 || int64(b.Frames())*1000 <= limit*int64(b.SampleRate) {
		return b
	}

	return audio.Truncate(b, limit)
}

func fold(b audio.Buffer) (audio.Buffer, error) {
	if b.Channels == Channels {
		return b, nil
	}

	return audio.Downmix(b), nil
}

func resample(b audio.Buffer) (audio.Buffer, error) {
	if b.SampleRate == SampleRate {
		return b, nil
	}

	return audio.Resample(b, SampleRate)
}

func fade(b audio.Buffer) (audio.Buffer, error) {
	if b.DurationMS() <= MinFadeMS {
		return b, nil
	}

	b.Samples = audio.FadeIn(b.Samples, b.SampleRate, FadeMS)
	b.Samples = audio.FadeOut(b.Samples, b.SampleRate, FadeMS)

	return b, nil
}
