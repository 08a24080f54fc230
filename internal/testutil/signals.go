package testutil

import (
	"math"
	"math/rand/v2"
)

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude)
// from a PCG source seeded with seed.
func DeterministicNoise(seed uint64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewPCG(seed, 0))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DecayingNoise generates a synthetic room-like impulse response: white
// noise under an exponential envelope that falls by 60 dB over length
// samples.
func DecayingNoise(seed uint64, length int) []float64 {
	out := DeterministicNoise(seed, 1, length)
	if length == 0 {
		return out
	}
	rate := math.Log(1000) / float64(length)
	for i := range out {
		out[i] *= math.Exp(-rate * float64(i))
	}
	return out
}

// Geometric returns scale * ratio^n for n in [0, length).
func Geometric(scale, ratio float64, length int) []float64 {
	out := make([]float64, length)
	v := scale
	for i := range out {
		out[i] = v
		v *= ratio
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Scale returns a copy of x multiplied by g.
func Scale(g float64, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = g * v
	}
	return out
}

// Delay returns x shifted right by d samples and truncated to length.
func Delay(x []float64, d, length int) []float64 {
	out := make([]float64, length)
	for i, v := range x {
		if i+d >= length {
			break
		}
		if i+d >= 0 {
			out[i+d] = v
		}
	}
	return out
}

// Channels builds a multichannel signal by calling gen once per channel.
func Channels(channels int, gen func(ch int) []float64) [][]float64 {
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = gen(ch)
	}
	return out
}

// Interleave packs channel-major data into frames (L0 R0 L1 R1 ...).
// All channels must have the same length.
func Interleave(x [][]float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	n := len(x[0])
	out := make([]float64, 0, len(x)*n)
	for i := range n {
		for ch := range x {
			out = append(out, x[ch][i])
		}
	}
	return out
}

// Deinterleave splits frame-interleaved data into channels.
func Deinterleave(x []float64, channels int) [][]float64 {
	n := len(x) / channels
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, n)
		for i := range n {
			out[ch][i] = x[i*channels+ch]
		}
	}
	return out
}
