package conv

import (
	"fmt"

	"github.com/cwbudde/algo-tvolap/dsp/spectrum"
)

// OverlapAddEngine is the plain overlap-add baseline: every block is
// zero-padded, convolved with the whole IR in one FFT, and the part that
// spills past the block is carried into the next output.
//
// Switching the IR takes effect at the next block edge: the new block is
// convolved with the new IR while the carried tail still belongs to the old
// one, which produces an audible step for most signals.
type OverlapAddEngine struct {
	selector

	bank *Bank
	fft  *spectrum.Transform

	blockLen  int
	kernelLen int
	channels  int

	tails [][]float64 // kernelLen-1 per channel

	spec []complex128
	conv []float64
}

// NewOverlapAddEngine creates an overlap-add engine for ir at blockLen.
// The FFT size is blockLen + irLen - 1 rounded up to a power of two.
func NewOverlapAddEngine(ir Tensor, blockLen int) (*OverlapAddEngine, error) {
	if err := validateImpulseResponses(ir, blockLen); err != nil {
		return nil, err
	}

	_, channels, kernelLen := ir.Dims()
	fftSize := nextPowerOf2(blockLen + kernelLen - 1)

	bank, err := newKernelBank(ir, blockLen, fftSize)
	if err != nil {
		return nil, err
	}

	fft, err := spectrum.NewTransform(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT: %w", err)
	}

	oa := &OverlapAddEngine{
		bank:      bank,
		fft:       fft,
		blockLen:  blockLen,
		kernelLen: kernelLen,
		channels:  channels,
		tails:     makeBlock(channels, kernelLen-1),
		spec:      make([]complex128, fft.Bins()),
		conv:      make([]float64, fftSize),
	}
	oa.count = bank.NumImpulseResponses()

	return oa, nil
}

// ProcessTo convolves one block of Channels() x BlockLen() samples into dst.
func (oa *OverlapAddEngine) ProcessTo(dst, src [][]float64) error {
	if err := checkBlock(dst, src, oa.channels, oa.blockLen); err != nil {
		return err
	}

	id := oa.ActiveImpulseResponse()

	for ch := range oa.channels {
		if err := oa.fft.Forward(oa.spec, src[ch]); err != nil {
			return fmt.Errorf("conv: forward FFT failed: %w", err)
		}

		kernel := oa.bank.Spectrum(id, 0, ch)
		for k := range oa.spec {
			oa.spec[k] *= kernel[k]
		}

		if err := oa.fft.Inverse(oa.conv, oa.spec); err != nil {
			return fmt.Errorf("conv: inverse FFT failed: %w", err)
		}

		// Add tail from previous block
		tail := oa.tails[ch]
		for i, v := range tail {
			oa.conv[i] += v
		}

		copy(dst[ch], oa.conv[:oa.blockLen])
		copy(tail, oa.conv[oa.blockLen:oa.blockLen+len(tail)])
	}

	return nil
}

// Reset clears the tail buffers (overlap state from previous blocks).
func (oa *OverlapAddEngine) Reset() {
	for _, tail := range oa.tails {
		clear(tail)
	}
}

// BlockLen returns the block length.
func (oa *OverlapAddEngine) BlockLen() int {
	return oa.blockLen
}

// Channels returns the channel count.
func (oa *OverlapAddEngine) Channels() int {
	return oa.channels
}

// KernelLen returns the IR length.
func (oa *OverlapAddEngine) KernelLen() int {
	return oa.kernelLen
}

// FFTSize returns the FFT size.
func (oa *OverlapAddEngine) FFTSize() int {
	return oa.fft.Size()
}

// Latency returns 0: output block n holds the convolution at input block n.
func (oa *OverlapAddEngine) Latency() int {
	return 0
}
