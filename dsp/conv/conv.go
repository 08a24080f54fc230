package conv

import (
	"errors"
	"fmt"
)

// Errors returned by the convolution engines.
var (
	ErrInvalidShape         = errors.New("conv: impulse response tensor must be IR x channel x sample")
	ErrInvalidChannelLayout = errors.New("conv: more channels than samples per impulse response")
	ErrInvalidBlockLength   = errors.New("conv: block length must be a power of two >= 32")
	ErrOutOfRange           = errors.New("conv: impulse response id out of range")
	ErrChannelMismatch      = errors.New("conv: channel count mismatch")
	ErrLengthMismatch       = errors.New("conv: buffer length mismatch")
	ErrEmptyInput           = errors.New("conv: empty input")
	ErrEmptyKernel          = errors.New("conv: empty kernel")
)

// MinBlockLen is the smallest block length accepted by the engines.
const MinBlockLen = 32

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
//
// This is an O(N*M) algorithm. The engines use it nowhere on the processing
// path; it is the ground truth their output is checked against.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)
	DirectTo(result, a, b)
	return result, nil
}

// DirectTo performs direct convolution, writing to a pre-allocated destination.
// dst must have length len(a) + len(b) - 1.
func DirectTo(dst, a, b []float64) {
	clear(dst)

	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, h := range b {
			dst[i+j] += x * h
		}
	}
}

// validateBlockLen checks the block length constraints shared by all engines.
func validateBlockLen(blockLen int) error {
	if !isPowerOf2(blockLen) {
		return fmt.Errorf("%w: %d is not a power of two", ErrInvalidBlockLength, blockLen)
	}
	if blockLen < MinBlockLen {
		return fmt.Errorf("%w: %d is below %d", ErrInvalidBlockLength, blockLen, MinBlockLen)
	}
	return nil
}

// checkBlock validates one multichannel block pair before any state is touched.
func checkBlock(dst, src [][]float64, channels, blockLen int) error {
	if len(src) != channels {
		return fmt.Errorf("%w: expected %d input channels, got %d", ErrChannelMismatch, channels, len(src))
	}
	if len(dst) != channels {
		return fmt.Errorf("%w: expected %d output channels, got %d", ErrChannelMismatch, channels, len(dst))
	}

	for ch := range channels {
		if len(src[ch]) != blockLen {
			return fmt.Errorf("%w: channel %d: expected %d input samples, got %d", ErrLengthMismatch, ch, blockLen, len(src[ch]))
		}
		if len(dst[ch]) != blockLen {
			return fmt.Errorf("%w: channel %d: expected %d output samples, got %d", ErrLengthMismatch, ch, blockLen, len(dst[ch]))
		}
	}

	return nil
}

// makeBlock allocates a channels x n matrix backed by one slice.
func makeBlock(channels, n int) [][]float64 {
	backing := make([]float64, channels*n)
	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = backing[ch*n : (ch+1)*n : (ch+1)*n]
	}
	return out
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// isPowerOf2 returns true if n is a power of 2.
func isPowerOf2(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
