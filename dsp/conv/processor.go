package conv

import "fmt"

// Processor is the block contract shared by Engine and the baseline
// engines: fixed-size multichannel blocks in, equally sized blocks out, and
// a selectable impulse response.
type Processor interface {
	ProcessTo(dst, src [][]float64) error
	SelectImpulseResponse(id int) error
	ActiveImpulseResponse() int
	BlockLen() int
	Channels() int
	Latency() int
	Reset()
}

var (
	_ Processor = (*Engine)(nil)
	_ Processor = (*OverlapAddEngine)(nil)
	_ Processor = (*OverlapSaveEngine)(nil)
	_ Processor = (*WeightedOverlapAddEngine)(nil)
)

// Interleaved adapts a Processor to frame-interleaved buffers
// (L0 R0 L1 R1 ...), the layout most audio hosts deliver.
type Interleaved struct {
	p        Processor
	channels int
	blockLen int
	in       [][]float64
	out      [][]float64
}

// NewInterleaved wraps p. The returned adapter owns per-channel scratch and
// does not allocate while processing.
func NewInterleaved(p Processor) *Interleaved {
	channels, blockLen := p.Channels(), p.BlockLen()
	return &Interleaved{
		p:        p,
		channels: channels,
		blockLen: blockLen,
		in:       makeBlock(channels, blockLen),
		out:      makeBlock(channels, blockLen),
	}
}

// ProcessTo de-interleaves src, processes one block and interleaves the
// result into dst. Both buffers must hold Channels()*BlockLen() samples and
// may be the same slice.
func (il *Interleaved) ProcessTo(dst, src []float64) error {
	n := il.channels * il.blockLen
	if len(src) != n {
		return fmt.Errorf("%w: input has %d samples, expected %d", ErrLengthMismatch, len(src), n)
	}
	if len(dst) != n {
		return fmt.Errorf("%w: output has %d samples, expected %d", ErrLengthMismatch, len(dst), n)
	}

	for i := range il.blockLen {
		frame := src[i*il.channels : (i+1)*il.channels]
		for ch, v := range frame {
			il.in[ch][i] = v
		}
	}

	if err := il.p.ProcessTo(il.out, il.in); err != nil {
		return err
	}

	for i := range il.blockLen {
		frame := dst[i*il.channels : (i+1)*il.channels]
		for ch := range frame {
			frame[ch] = il.out[ch][i]
		}
	}

	return nil
}

// Processor returns the wrapped processor.
func (il *Interleaved) Processor() Processor {
	return il.p
}

// Channels returns the number of interleaved channels.
func (il *Interleaved) Channels() int {
	return il.channels
}

// BlockLen returns the number of frames per call.
func (il *Interleaved) BlockLen() int {
	return il.blockLen
}
