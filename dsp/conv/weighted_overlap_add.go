package conv

import (
	"fmt"

	"github.com/cwbudde/algo-tvolap/dsp/spectrum"
	"github.com/cwbudde/algo-tvolap/dsp/window"
)

// WOLAOption configures a WeightedOverlapAddEngine.
type WOLAOption func(*wolaConfig)

type wolaConfig struct {
	rootHann bool
}

// WithRootHannWindows uses a periodic root-Hann window for analysis and
// applies the same window again as synthesis window on every frame output.
// The product of both windows is a Hann window, so a unit impulse at lag
// zero is still reproduced exactly, while longer IRs are only approximated.
func WithRootHannWindows() WOLAOption {
	return func(c *wolaConfig) {
		c.rootHann = true
	}
}

// WeightedOverlapAddEngine is the weighted overlap-add baseline.
//
// The input is cut into frames of BlockLen() samples with a hop of
// BlockLen()/2, so every call produces two frames. Each frame is weighted by
// the analysis window and convolved with the whole IR. Frames of the same
// parity do not overlap and are assembled by plain overlap-add into one of
// two lanes; the lanes are then summed at a half-block offset.
//
// With the default periodic Hann analysis window and no synthesis window the
// windows sum to one and the output is the exact convolution delayed by
// BlockLen()/2. The IR is switched abruptly, but only the frames started
// after the switch see the new IR.
type WeightedOverlapAddEngine struct {
	selector

	bank      *Bank
	fft       *spectrum.Transform
	analysis  *window.Table
	synthesis *window.Table // nil without root-Hann

	blockLen  int
	hop       int
	kernelLen int
	channels  int

	prev  [][]float64    // previous input block per channel
	tails [2][][]float64 // per lane, kernelLen-1 per channel
	carry [][]float64    // second half of the last lane 1 output, hop per channel

	frame []float64 // blockLen
	spec  []complex128
	conv  []float64
	lanes [2][]float64 // blockLen each
}

// NewWeightedOverlapAddEngine creates a WOLA engine for ir at blockLen.
func NewWeightedOverlapAddEngine(ir Tensor, blockLen int, opts ...WOLAOption) (*WeightedOverlapAddEngine, error) {
	var cfg wolaConfig
	for _, opt := range opts {
		opt(&cfg)
	}

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

	winType := window.TypeHann
	if cfg.rootHann {
		winType = window.TypeSqrtHann
	}

	analysis, err := window.NewTable(winType, blockLen, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create analysis window: %w", err)
	}

	w := &WeightedOverlapAddEngine{
		bank:      bank,
		fft:       fft,
		analysis:  analysis,
		blockLen:  blockLen,
		hop:       blockLen / 2,
		kernelLen: kernelLen,
		channels:  channels,
		prev:      makeBlock(channels, blockLen),
		tails:     [2][][]float64{makeBlock(channels, kernelLen-1), makeBlock(channels, kernelLen-1)},
		carry:     makeBlock(channels, blockLen/2),
		frame:     make([]float64, blockLen),
		spec:      make([]complex128, fft.Bins()),
		conv:      make([]float64, fftSize),
		lanes:     [2][]float64{make([]float64, blockLen), make([]float64, blockLen)},
	}
	w.count = bank.NumImpulseResponses()

	if cfg.rootHann {
		w.synthesis = analysis
	}

	return w, nil
}

// ProcessTo convolves one block of Channels() x BlockLen() samples into dst.
func (w *WeightedOverlapAddEngine) ProcessTo(dst, src [][]float64) error {
	if err := checkBlock(dst, src, w.channels, w.blockLen); err != nil {
		return err
	}

	id := w.ActiveImpulseResponse()
	hop := w.hop

	for ch := range w.channels {
		// Lane 0: frame centred on the block boundary
		copy(w.frame[:hop], w.prev[ch][hop:])
		copy(w.frame[hop:], src[ch][:hop])
		if err := w.convolveFrame(w.lanes[0], w.tails[0][ch], id, ch); err != nil {
			return err
		}

		// Lane 1: frame aligned with the block
		copy(w.frame, src[ch])
		copy(w.prev[ch], src[ch])
		if err := w.convolveFrame(w.lanes[1], w.tails[1][ch], id, ch); err != nil {
			return err
		}

		out := dst[ch]
		carry := w.carry[ch]
		lane0, lane1 := w.lanes[0], w.lanes[1]

		for i := range hop {
			out[i] = lane0[i] + carry[i]
			out[hop+i] = lane0[hop+i] + lane1[i]
		}
		copy(carry, lane1[hop:])
	}

	return nil
}

// convolveFrame windows w.frame, convolves it with IR id and overlap-adds
// the result into lane using tail.
func (w *WeightedOverlapAddEngine) convolveFrame(lane, tail []float64, id, ch int) error {
	if err := w.analysis.ApplyInPlace(w.frame); err != nil {
		return err
	}

	if err := w.fft.Forward(w.spec, w.frame); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	kernel := w.bank.Spectrum(id, 0, ch)
	for k := range w.spec {
		w.spec[k] *= kernel[k]
	}

	if err := w.fft.Inverse(w.conv, w.spec); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	for i, v := range tail {
		w.conv[i] += v
	}

	copy(lane, w.conv[:w.blockLen])
	copy(tail, w.conv[w.blockLen:w.blockLen+len(tail)])

	if w.synthesis != nil {
		return w.synthesis.ApplyInPlace(lane)
	}
	return nil
}

// Reset clears input history, lane tails and carry.
func (w *WeightedOverlapAddEngine) Reset() {
	for ch := range w.channels {
		clear(w.prev[ch])
		clear(w.tails[0][ch])
		clear(w.tails[1][ch])
		clear(w.carry[ch])
	}
}

// BlockLen returns the block length.
func (w *WeightedOverlapAddEngine) BlockLen() int {
	return w.blockLen
}

// Channels returns the channel count.
func (w *WeightedOverlapAddEngine) Channels() int {
	return w.channels
}

// KernelLen returns the IR length.
func (w *WeightedOverlapAddEngine) KernelLen() int {
	return w.kernelLen
}

// FFTSize returns the FFT size.
func (w *WeightedOverlapAddEngine) FFTSize() int {
	return w.fft.Size()
}

// Hop returns the frame advance in samples (BlockLen()/2).
func (w *WeightedOverlapAddEngine) Hop() int {
	return w.hop
}

// Latency returns BlockLen()/2.
func (w *WeightedOverlapAddEngine) Latency() int {
	return w.hop
}
