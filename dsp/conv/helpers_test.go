package conv

import (
	"testing"

	"github.com/cwbudde/algo-tvolap/internal/testutil"
)

type builder struct {
	name  string
	build func(ir Tensor, blockLen int) (Processor, error)
}

var builders = []builder{
	{"tvolap", func(ir Tensor, n int) (Processor, error) {
		e, err := NewEngine(ir, n)
		if err != nil {
			return nil, err
		}
		return e, nil
	}},
	{"ola", func(ir Tensor, n int) (Processor, error) {
		e, err := NewOverlapAddEngine(ir, n)
		if err != nil {
			return nil, err
		}
		return e, nil
	}},
	{"ols", func(ir Tensor, n int) (Processor, error) {
		e, err := NewOverlapSaveEngine(ir, n)
		if err != nil {
			return nil, err
		}
		return e, nil
	}},
	{"wola", func(ir Tensor, n int) (Processor, error) {
		e, err := NewWeightedOverlapAddEngine(ir, n)
		if err != nil {
			return nil, err
		}
		return e, nil
	}},
}

func mustTensor(t *testing.T, ir [][][]float64) Tensor {
	t.Helper()
	tensor, err := NewTensor(ir)
	if err != nil {
		t.Fatalf("NewTensor: %v", err)
	}
	return tensor
}

// noiseIRs builds numIR impulse responses of decaying noise with distinct
// seeds per IR and channel.
func noiseIRs(numIR, channels, length int) [][][]float64 {
	ir := make([][][]float64, numIR)
	for id := range ir {
		ir[id] = testutil.Channels(channels, func(ch int) []float64 {
			return testutil.DecayingNoise(uint64(100+10*id+ch), length)
		})
	}
	return ir
}

func noiseInput(channels, length int) [][]float64 {
	return testutil.Channels(channels, func(ch int) []float64 {
		return testutil.DeterministicNoise(uint64(1+ch), 1, length)
	})
}

// stream feeds input through p block by block, zero-padding the last block,
// and returns the concatenated raw output.
func stream(t *testing.T, p Processor, input [][]float64) [][]float64 {
	t.Helper()

	n := p.BlockLen()
	total := len(input[0])
	blocks := (total + n - 1) / n

	out := makeBlock(p.Channels(), blocks*n)
	src := makeBlock(p.Channels(), n)
	dst := makeBlock(p.Channels(), n)

	for b := range blocks {
		lo := b * n
		hi := min(lo+n, total)
		for ch := range src {
			clear(src[ch])
			copy(src[ch], input[ch][lo:hi])
		}

		if err := p.ProcessTo(dst, src); err != nil {
			t.Fatalf("block %d: ProcessTo: %v", b, err)
		}

		for ch := range dst {
			copy(out[ch][lo:], dst[ch])
		}
	}

	return out
}

// reference returns the linear convolution of x and h delayed by delay and
// cut to length samples.
func reference(t *testing.T, x, h []float64, delay, length int) []float64 {
	t.Helper()
	full, err := Direct(x, h)
	if err != nil {
		t.Fatalf("Direct: %v", err)
	}
	return testutil.Delay(full, delay, length)
}
