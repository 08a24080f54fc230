package switching

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-tvolap/dsp/conv"
)

// Errors returned by the measurement functions.
var (
	ErrEmptyRange = errors.New("switching: empty measurement range")
	ErrNoEngines  = errors.New("switching: no engines to compare")
)

// Switch selects impulse response ID after block Block has been processed,
// so the change applies from block Block+1 on.
type Switch struct {
	Block int
	ID    int
}

// Boundary returns the first input sample processed with the new impulse
// response.
func (s Switch) Boundary(blockLen int) int {
	return (s.Block + 1) * blockLen
}

// Run streams input (channel x sample) through p in blocks of p.BlockLen(),
// applying switches between blocks, and returns len(input[0]) output samples
// per channel aligned with the input: the processor's latency is removed by
// feeding zeros after the last input sample and dropping the head.
//
// The processor is used from its current state and selection.
func Run(p conv.Processor, input [][]float64, switches []Switch) ([][]float64, error) {
	channels, blockLen, latency := p.Channels(), p.BlockLen(), p.Latency()

	if len(input) != channels {
		return nil, fmt.Errorf("%w: processor has %d channels, input %d", conv.ErrChannelMismatch, channels, len(input))
	}

	total := len(input[0])
	if total == 0 {
		return nil, conv.ErrEmptyInput
	}
	for ch := range input {
		if len(input[ch]) != total {
			return nil, fmt.Errorf("%w: channel %d has %d samples, want %d", conv.ErrLengthMismatch, ch, len(input[ch]), total)
		}
	}

	blocks := (total + latency + blockLen - 1) / blockLen

	raw := make([][]float64, channels)
	out := make([][]float64, channels)
	for ch := range raw {
		raw[ch] = make([]float64, blocks*blockLen)
		out[ch] = raw[ch][latency : latency+total]
	}

	src := make([][]float64, channels)
	dst := make([][]float64, channels)
	for ch := range src {
		src[ch] = make([]float64, blockLen)
	}

	for b := range blocks {
		lo := b * blockLen
		for ch := range src {
			clear(src[ch])
			if lo < total {
				copy(src[ch], input[ch][lo:min(lo+blockLen, total)])
			}
		}

		for ch := range dst {
			dst[ch] = raw[ch][lo : lo+blockLen]
		}

		if err := p.ProcessTo(dst, src); err != nil {
			return nil, fmt.Errorf("switching: block %d: %w", b, err)
		}

		for _, s := range switches {
			if s.Block != b {
				continue
			}
			if err := p.SelectImpulseResponse(s.ID); err != nil {
				return nil, fmt.Errorf("switching: block %d: %w", b, err)
			}
		}
	}

	return out, nil
}

// DifferenceEnergy returns sum((x[n]-x[n-1])^2) for n in [start, end).
// The range is clamped to [1, len(x)).
func DifferenceEnergy(x []float64, start, end int) (float64, error) {
	diff, err := difference(x, start, end)
	if err != nil {
		return 0, err
	}
	return floats.Dot(diff, diff), nil
}

// PeakStep returns max |x[n]-x[n-1]| for n in [start, end), clamped like
// DifferenceEnergy.
func PeakStep(x []float64, start, end int) (float64, error) {
	diff, err := difference(x, start, end)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, math.Inf(1)), nil
}

// ErrorEnergy returns sum((got[n]-want[n])^2) for n in [start, end),
// clamped to the shorter of both signals.
func ErrorEnergy(got, want []float64, start, end int) (float64, error) {
	start = max(start, 0)
	end = min(end, len(got), len(want))
	if start >= end {
		return 0, fmt.Errorf("%w: [%d, %d)", ErrEmptyRange, start, end)
	}

	diff := make([]float64, end-start)
	floats.SubTo(diff, got[start:end], want[start:end])
	return floats.Dot(diff, diff), nil
}

func difference(x []float64, start, end int) ([]float64, error) {
	start = max(start, 1)
	end = min(end, len(x))
	if start >= end {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrEmptyRange, start, end)
	}

	diff := make([]float64, end-start)
	floats.SubTo(diff, x[start:end], x[start-1:end-1])
	return diff, nil
}
