package spectrum

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Errors returned by Transform.
var (
	ErrInvalidSize    = errors.New("spectrum: transform size must be a power of two >= 2")
	ErrLengthMismatch = errors.New("spectrum: buffer length mismatch")
)

// Transform is a real-valued FFT/IFFT pair of fixed size.
//
// Forward maps up to Size() real samples (zero-padded) to the Size()/2+1
// non-negative frequency bins. Inverse maps those bins back to Size() real
// samples, treating the spectrum as Hermitian. The forward direction is
// unnormalized and the inverse carries the 1/Size() factor, so
// Inverse(Forward(x)) == x.
//
// A Transform owns its scratch memory: it does not allocate after
// construction and must not be shared between goroutines.
type Transform struct {
	size int
	bins int

	plan *algofft.Plan[complex128]
	buf  []complex128
}

// NewTransform creates a real transform of the given size.
func NewTransform(size int) (*Transform, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	return &Transform{
		size: size,
		bins: size/2 + 1,
		plan: plan,
		buf:  make([]complex128, size),
	}, nil
}

// Size returns the transform length in samples.
func (t *Transform) Size() int {
	return t.size
}

// Bins returns the number of half-spectrum bins (Size()/2+1).
func (t *Transform) Bins() int {
	return t.bins
}

// Forward computes the half spectrum of src into dst.
// src may be shorter than Size(); missing samples are treated as zero.
// dst must have length Bins().
func (t *Transform) Forward(dst []complex128, src []float64) error {
	if len(src) > t.size {
		return fmt.Errorf("%w: input has %d samples, transform size is %d", ErrLengthMismatch, len(src), t.size)
	}
	if len(dst) != t.bins {
		return fmt.Errorf("%w: expected %d bins, got %d", ErrLengthMismatch, t.bins, len(dst))
	}

	for i, v := range src {
		t.buf[i] = complex(v, 0)
	}
	clear(t.buf[len(src):])

	if err := t.plan.Forward(t.buf, t.buf); err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	copy(dst, t.buf[:t.bins])
	return nil
}

// Inverse computes the real signal whose half spectrum is src.
// src must have length Bins() and dst length Size(). The imaginary parts of
// the DC and Nyquist bins are ignored.
func (t *Transform) Inverse(dst []float64, src []complex128) error {
	if len(src) != t.bins {
		return fmt.Errorf("%w: expected %d bins, got %d", ErrLengthMismatch, t.bins, len(src))
	}
	if len(dst) != t.size {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrLengthMismatch, t.size, len(dst))
	}

	half := t.size / 2
	t.buf[0] = complex(real(src[0]), 0)
	t.buf[half] = complex(real(src[half]), 0)
	for k := 1; k < half; k++ {
		v := src[k]
		t.buf[k] = v
		t.buf[t.size-k] = complex(real(v), -imag(v))
	}

	if err := t.plan.Inverse(t.buf, t.buf); err != nil {
		return fmt.Errorf("spectrum: inverse FFT failed: %w", err)
	}

	for i := range dst {
		dst[i] = real(t.buf[i])
	}
	return nil
}
