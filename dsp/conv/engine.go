package conv

import (
	"fmt"

	"github.com/cwbudde/algo-tvolap/dsp/spectrum"
	"github.com/cwbudde/algo-tvolap/dsp/window"
)

// Engine implements time-variant partitioned overlap-add (TVOLAP)
// convolution of multichannel audio with a set of switchable impulse
// responses.
//
// Every block of B samples is joined with the previous block into a 2B frame,
// Hann-windowed and transformed (4B-point FFT). Consecutive frames overlap by
// 50% and alternate between two lanes (parity 0 and 1); within a lane the
// frames are adjacent, so each lane is an ordinary uniformly partitioned
// convolution with partition length 2B. The spectra of the last
// 2*Partitions() frames are kept in a ring; partition p of the active IR
// multiplies the frame 2p slots back, which is the same-lane frame p
// partitions older. The two lanes are overlap-added, and since the periodic
// Hann window sums to one at 50% overlap the result is the exact linear
// convolution, delayed by B samples.
//
// Selecting another IR changes the coefficients for all partitions at once,
// but every frame entering the sum is windowed, so the new response fades in
// over the window instead of starting with a step at a block edge.
//
// ProcessTo must be driven by a single goroutine; it does not allocate and
// runs a fixed amount of work per block. SelectImpulseResponse may be called
// from any goroutine at any time.
type Engine struct {
	selector

	bank *Bank
	fft  *spectrum.Transform
	win  *window.Table

	blockLen int
	channels int
	parts    int
	ringLen  int

	// state
	history  [][]complex128 // ringLen*channels spectra, slot-major
	prev     [][]float64    // previous input block per channel
	tails    [2][][]float64 // second half of the last IFFT per parity, 2B per channel
	carry    [][]float64    // second half of the last lane output, B per channel
	writePos int
	parity   int

	// scratch
	frame []float64    // 2B
	acc   []complex128 // bins
	conv  []float64    // 4B
}

// NewEngine creates a TVOLAP engine for the impulse responses in ir
// (IR x channel x sample) and the given block length, which must be a power
// of two of at least MinBlockLen. Impulse response 0 is active initially.
func NewEngine(ir Tensor, blockLen int) (*Engine, error) {
	bank, err := NewBank(ir, blockLen)
	if err != nil {
		return nil, err
	}

	fft, err := spectrum.NewTransform(bank.FFTSize())
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT: %w", err)
	}

	win, err := window.NewTable(window.TypeHann, 2*blockLen, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create analysis window: %w", err)
	}

	channels := bank.Channels()
	parts := bank.Partitions()
	ringLen := 2 * parts
	bins := bank.Bins()

	e := &Engine{
		bank:     bank,
		fft:      fft,
		win:      win,
		blockLen: blockLen,
		channels: channels,
		parts:    parts,
		ringLen:  ringLen,
		history:  make([][]complex128, ringLen*channels),
		prev:     makeBlock(channels, blockLen),
		tails:    [2][][]float64{makeBlock(channels, 2*blockLen), makeBlock(channels, 2*blockLen)},
		carry:    makeBlock(channels, blockLen),
		frame:    make([]float64, 2*blockLen),
		acc:      make([]complex128, bins),
		conv:     make([]float64, bank.FFTSize()),
	}
	e.count = bank.NumImpulseResponses()

	backing := make([]complex128, len(e.history)*bins)
	for i := range e.history {
		e.history[i] = backing[i*bins : (i+1)*bins : (i+1)*bins]
	}

	return e, nil
}

// Process convolves one block and returns a newly allocated output block.
func (e *Engine) Process(src [][]float64) ([][]float64, error) {
	dst := makeBlock(e.channels, e.blockLen)
	if err := e.ProcessTo(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

// ProcessTo convolves one block of Channels() x BlockLen() samples into dst.
// dst[ch] may alias src[ch]. On a shape error nothing is processed and the
// engine state is left untouched.
func (e *Engine) ProcessTo(dst, src [][]float64) error {
	if err := checkBlock(dst, src, e.channels, e.blockLen); err != nil {
		return err
	}

	id := e.ActiveImpulseResponse()
	n := e.blockLen

	for ch := range e.channels {
		copy(e.frame[:n], e.prev[ch])
		copy(e.frame[n:], src[ch])
		copy(e.prev[ch], src[ch])

		if err := e.win.ApplyInPlace(e.frame); err != nil {
			return err
		}

		if err := e.fft.Forward(e.slot(e.writePos, ch), e.frame); err != nil {
			return fmt.Errorf("conv: forward FFT failed: %w", err)
		}

		clear(e.acc)

		read := e.writePos
		for p := range e.parts {
			frame := e.slot(read, ch)
			coeffs := e.bank.Spectrum(id, p, ch)
			for k, v := range frame {
				e.acc[k] += v * coeffs[k]
			}

			read -= 2
			if read < 0 {
				read += e.ringLen
			}
		}

		if err := e.fft.Inverse(e.conv, e.acc); err != nil {
			return fmt.Errorf("conv: inverse FFT failed: %w", err)
		}

		tail := e.tails[e.parity][ch]
		carry := e.carry[ch]
		out := dst[ch]

		for i := range n {
			out[i] = e.conv[i] + tail[i] + carry[i]
			carry[i] = e.conv[n+i] + tail[n+i]
		}

		copy(tail, e.conv[2*n:])
	}

	e.writePos++
	if e.writePos == e.ringLen {
		e.writePos = 0
	}
	e.parity ^= 1

	return nil
}

func (e *Engine) slot(pos, ch int) []complex128 {
	return e.history[pos*e.channels+ch]
}

// Reset clears the input history, tails and carry so the next block is
// processed as the first of a new stream. The IR selection is kept.
func (e *Engine) Reset() {
	for _, s := range e.history {
		clear(s)
	}
	for ch := range e.channels {
		clear(e.prev[ch])
		clear(e.carry[ch])
		clear(e.tails[0][ch])
		clear(e.tails[1][ch])
	}
	e.writePos = 0
	e.parity = 0
}

// Bank returns the partitioned impulse responses used by the engine.
func (e *Engine) Bank() *Bank {
	return e.bank
}

// BlockLen returns the block length in samples.
func (e *Engine) BlockLen() int {
	return e.blockLen
}

// Channels returns the channel count.
func (e *Engine) Channels() int {
	return e.channels
}

// Partitions returns the number of IR partitions.
func (e *Engine) Partitions() int {
	return e.parts
}

// FFTSize returns the transform size (4 * BlockLen()).
func (e *Engine) FFTSize() int {
	return e.fft.Size()
}

// Latency returns the delay between input and output in samples, which is
// one block.
func (e *Engine) Latency() int {
	return e.blockLen
}
