package audio

import (
	"fmt"
	"math"
)

// PeakNormalize scales samples so the peak amplitude reaches 1.0.
// Silence is returned unchanged. The input slice is not modified.
func PeakNormalize(samples []float32) []float32 {
	out := make([]float32, len(samples))

	p := peak(samples)
	if p == 0 {
		copy(out, samples)
		return out
	}

	gain := 1 / float64(p)
	for i, v := range samples {
		out[i] = clamp(float64(v) * gain)
	}

	return out
}

// Gain multiplies every sample by g and clamps the result to [-1, 1].
func Gain(samples []float32, g float64) []float32 {
	out := make([]float32, len(samples))
	for i, v := range samples {
		out[i] = clamp(float64(v) * g)
	}

	return out
}

// Truncate keeps the first ms milliseconds of buf. Shorter buffers are
// returned as an unchanged copy.
func Truncate(buf Buffer, ms int64) Buffer {
	frames := ms * int64(buf.SampleRate) / 1000
	if frames < 0 {
		frames = 0
	}
	if frames >= int64(buf.Frames()) {
		return buf.clone()
	}

	out := buf
	out.Samples = append([]float32(nil), buf.Samples[:int(frames)*buf.Channels]...)

	return out
}

// Downmix folds interleaved channels into one by averaging each frame.
func Downmix(buf Buffer) Buffer {
	if buf.Channels <= 1 {
		return buf.clone()
	}

	frames := buf.Frames()
	mono := make([]float32, frames)
	ch := buf.Channels
	for f := range frames {
		var sum float64
		for c := range ch {
			sum += float64(buf.Samples[f*ch+c])
		}
		mono[f] = float32(sum / float64(ch))
	}

	return Buffer{SampleRate: buf.SampleRate, Channels: 1, Samples: mono}
}

// Resample converts buf to rate using linear interpolation between
// neighbouring frames. The output frame count is frames*rate/srcRate rounded
// down, so the duration never grows.
func Resample(buf Buffer, rate int) (Buffer, error) {
	if rate < 1 {
		return Buffer{}, fmt.Errorf("invalid target sample rate: %d", rate)
	}
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	if buf.SampleRate == rate {
		return buf.clone(), nil
	}

	src := buf.Frames()
	dst := int(int64(src) * int64(rate) / int64(buf.SampleRate))
	ch := buf.Channels
	out := make([]float32, dst*ch)
	step := float64(buf.SampleRate) / float64(rate)

	for j := range dst {
		pos := float64(j) * step
		i0 := int(pos)
		if i0 >= src {
			i0 = src - 1
		}
		i1 := i0 + 1
		if i1 >= src {
			i1 = src - 1
		}
		frac := float32(pos - float64(i0))

		for c := range ch {
			a := buf.Samples[i0*ch+c]
			b := buf.Samples[i1*ch+c]
			out[j*ch+c] = a + (b-a)*frac
		}
	}

	return Buffer{SampleRate: rate, Channels: ch, Samples: out}, nil
}

// FadeIn applies a linear fade-in ramp over the given duration in milliseconds.
// The first sample is silenced; the sample at the end of the ramp is untouched.
func FadeIn(samples []float32, sampleRate int, ms float64) []float32 {
	out := append([]float32(nil), samples...)

	n := fadeLength(sampleRate, ms)
	for i := 0; i < n && i < len(out); i++ {
		out[i] *= float32(i) / float32(n)
	}

	return out
}

// FadeOut applies a linear fade-out ramp over the given duration in milliseconds.
// The last sample is silenced.
func FadeOut(samples []float32, sampleRate int, ms float64) []float32 {
	out := append([]float32(nil), samples...)

	n := fadeLength(sampleRate, ms)
	last := len(out) - 1
	for i := 0; i < n && i <= last; i++ {
		out[last-i] *= float32(i) / float32(n)
	}

	return out
}

func fadeLength(sampleRate int, ms float64) int {
	if sampleRate < 1 || ms <= 0 {
		return 0
	}

	return int(ms / 1000 * float64(sampleRate))
}

func peak(samples []float32) float32 {
	var p float32
	for _, v := range samples {
		if a := float32(math.Abs(float64(v))); a > p {
			p = a
		}
	}

	return p
}

func clamp(v float64) float32 {
	return float32(math.Max(-1, math.Min(1, v)))
}
