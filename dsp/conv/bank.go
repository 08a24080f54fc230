package conv

import (
	"fmt"

	"github.com/cwbudde/algo-tvolap/dsp/spectrum"
)

// Bank holds every impulse response of a set, split into equal partitions
// and transformed to the frequency domain once.
//
// Spectra are indexed by (IR id, partition, channel). Each partition is
// zero-padded to twice its length before the transform so that multiplying
// it with a zero-padded input frame realizes linear, not circular,
// convolution. A Bank is immutable after construction and safe for
// concurrent reads.
type Bank struct {
	numIR    int
	channels int
	irLen    int

	blockLen int
	partLen  int
	parts    int
	fftSize  int
	bins     int

	spectra [][]complex128
}

// NewBank partitions ir for a TVOLAP engine running at blockLen.
//
// The partition length equals the engine's analysis frame, 2*blockLen, and
// the transform size is 4*blockLen. The IR is zero-padded up to a whole
// number of partitions.
func NewBank(ir Tensor, blockLen int) (*Bank, error) {
	if err := validateImpulseResponses(ir, blockLen); err != nil {
		return nil, err
	}

	partLen := 2 * blockLen
	return buildBank(ir, blockLen, partLen, 2*partLen)
}

// newKernelBank transforms each IR channel as one partition of size fftSize,
// as used by the single-partition engines.
func newKernelBank(ir Tensor, blockLen, fftSize int) (*Bank, error) {
	_, _, irLen := ir.Dims()
	return buildBank(ir, blockLen, irLen, fftSize)
}

func buildBank(ir Tensor, blockLen, partLen, fftSize int) (*Bank, error) {
	numIR, channels, irLen := ir.Dims()

	fft, err := spectrum.NewTransform(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: partition FFT init (size=%d): %w", fftSize, err)
	}

	parts := (irLen + partLen - 1) / partLen

	b := &Bank{
		numIR:    numIR,
		channels: channels,
		irLen:    irLen,
		blockLen: blockLen,
		partLen:  partLen,
		parts:    parts,
		fftSize:  fftSize,
		bins:     fft.Bins(),
		spectra:  make([][]complex128, numIR*parts*channels),
	}

	backing := make([]complex128, len(b.spectra)*b.bins)

	for id := range numIR {
		for p := range parts {
			lo := p * partLen
			hi := min(lo+partLen, irLen)

			for ch := range channels {
				idx := b.index(id, p, ch)
				spec := backing[idx*b.bins : (idx+1)*b.bins : (idx+1)*b.bins]

				if err := fft.Forward(spec, ir.Row(id, ch)[lo:hi]); err != nil {
					return nil, fmt.Errorf("conv: IR %d partition %d channel %d: %w", id, p, ch, err)
				}

				b.spectra[idx] = spec
			}
		}
	}

	return b, nil
}

func (b *Bank) index(id, part, ch int) int {
	return (id*b.parts+part)*b.channels + ch
}

// Spectrum returns the half spectrum of one partition. The slice is shared
// with the bank and must not be modified.
func (b *Bank) Spectrum(id, part, ch int) []complex128 {
	return b.spectra[b.index(id, part, ch)]
}

// Energy returns sum(h[n]^2) of one IR channel, computed from its partition
// spectra.
func (b *Bank) Energy(id, ch int) float64 {
	sum := 0.0
	for p := range b.parts {
		sum += spectrum.Energy(b.Spectrum(id, p, ch), b.fftSize)
	}
	return sum
}

// NumImpulseResponses returns the number of IRs in the bank.
func (b *Bank) NumImpulseResponses() int {
	return b.numIR
}

// Channels returns the channel count shared by all IRs.
func (b *Bank) Channels() int {
	return b.channels
}

// IRLen returns the unpadded IR length in samples.
func (b *Bank) IRLen() int {
	return b.irLen
}

// BlockLen returns the block length the bank was partitioned for.
func (b *Bank) BlockLen() int {
	return b.blockLen
}

// Partitions returns the number of partitions per IR channel.
func (b *Bank) Partitions() int {
	return b.parts
}

// PartitionLen returns the partition length in samples.
func (b *Bank) PartitionLen() int {
	return b.partLen
}

// FFTSize returns the transform size used for the spectra.
func (b *Bank) FFTSize() int {
	return b.fftSize
}

// Bins returns the number of bins per spectrum (FFTSize()/2+1).
func (b *Bank) Bins() int {
	return b.bins
}
