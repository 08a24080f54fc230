package conv

import (
	"fmt"

	"github.com/cwbudde/algo-tvolap/dsp/spectrum"
)

// OverlapSaveEngine is the overlap-save baseline: each FFT frame holds the
// last irLen-1 input samples followed by the new block, and the first
// irLen-1 samples of the inverse transform, which are corrupted by circular
// wrap-around, are discarded.
//
// Like OverlapAddEngine it switches coefficients abruptly at block edges.
type OverlapSaveEngine struct {
	selector

	bank *Bank
	fft  *spectrum.Transform

	blockLen  int
	kernelLen int
	channels  int

	history [][]float64 // last kernelLen-1 input samples per channel

	frame []float64 // kernelLen-1+blockLen
	spec  []complex128
	conv  []float64
}

// NewOverlapSaveEngine creates an overlap-save engine for ir at blockLen.
func NewOverlapSaveEngine(ir Tensor, blockLen int) (*OverlapSaveEngine, error) {
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

	os := &OverlapSaveEngine{
		bank:      bank,
		fft:       fft,
		blockLen:  blockLen,
		kernelLen: kernelLen,
		channels:  channels,
		history:   makeBlock(channels, kernelLen-1),
		frame:     make([]float64, kernelLen-1+blockLen),
		spec:      make([]complex128, fft.Bins()),
		conv:      make([]float64, fftSize),
	}
	os.count = bank.NumImpulseResponses()

	return os, nil
}

// ProcessTo convolves one block of Channels() x BlockLen() samples into dst.
func (os *OverlapSaveEngine) ProcessTo(dst, src [][]float64) error {
	if err := checkBlock(dst, src, os.channels, os.blockLen); err != nil {
		return err
	}

	id := os.ActiveImpulseResponse()
	histLen := os.kernelLen - 1

	for ch := range os.channels {
		// Build input frame: history + new samples
		copy(os.frame, os.history[ch])
		copy(os.frame[histLen:], src[ch])

		// History is the last kernelLen-1 samples of the frame
		copy(os.history[ch], os.frame[os.blockLen:])

		if err := os.fft.Forward(os.spec, os.frame); err != nil {
			return fmt.Errorf("conv: forward FFT failed: %w", err)
		}

		kernel := os.bank.Spectrum(id, 0, ch)
		for k := range os.spec {
			os.spec[k] *= kernel[k]
		}

		if err := os.fft.Inverse(os.conv, os.spec); err != nil {
			return fmt.Errorf("conv: inverse FFT failed: %w", err)
		}

		// Discard first kernelLen-1 samples (circular convolution artifacts)
		copy(dst[ch], os.conv[histLen:histLen+os.blockLen])
	}

	return nil
}

// Reset clears the input history.
func (os *OverlapSaveEngine) Reset() {
	for _, h := range os.history {
		clear(h)
	}
}

// BlockLen returns the block length.
func (os *OverlapSaveEngine) BlockLen() int {
	return os.blockLen
}

// Channels returns the channel count.
func (os *OverlapSaveEngine) Channels() int {
	return os.channels
}

// KernelLen returns the IR length.
func (os *OverlapSaveEngine) KernelLen() int {
	return os.kernelLen
}

// FFTSize returns the FFT size.
func (os *OverlapSaveEngine) FFTSize() int {
	return os.fft.Size()
}

// Latency returns 0.
func (os *OverlapSaveEngine) Latency() int {
	return 0
}
