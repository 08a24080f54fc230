package conv

import (
	"fmt"
	"testing"

	"github.com/cwbudde/algo-tvolap/internal/testutil"
)

func TestBaselinesMatchDirectConvolution(t *testing.T) {
	tests := []struct {
		blockLen int
		channels int
		irLen    int
	}{
		{32, 1, 1},
		{32, 2, 20},
		{32, 2, 100},
		{64, 1, 64},
		{128, 3, 700},
	}

	for _, tt := range tests {
		for _, bld := range builders[1:] {
			name := fmt.Sprintf("%s/B=%d/ir=%dx%d", bld.name, tt.blockLen, tt.channels, tt.irLen)
			t.Run(name, func(t *testing.T) {
				raw := noiseIRs(2, tt.channels, tt.irLen)
				p, err := bld.build(mustTensor(t, raw), tt.blockLen)
				if err != nil {
					t.Fatalf("build: %v", err)
				}

				input := noiseInput(tt.channels, 10*tt.blockLen+tt.irLen)

				for id := range 2 {
					if err := p.SelectImpulseResponse(id); err != nil {
						t.Fatalf("SelectImpulseResponse(%d): %v", id, err)
					}
					p.Reset()

					out := stream(t, p, input)
					for ch := range tt.channels {
						want := reference(t, input[ch], raw[id][ch], p.Latency(), len(out[ch]))
						testutil.RequireRelativeError(t, out[ch], want, 1e-9)
					}
				}
			})
		}
	}
}

func TestBaselineGeometry(t *testing.T) {
	ir := mustTensor(t, noiseIRs(1, 1, 100))

	ola, err := NewOverlapAddEngine(ir, 32)
	if err != nil {
		t.Fatal(err)
	}
	if ola.FFTSize() != 256 || ola.KernelLen() != 100 || ola.Latency() != 0 {
		t.Errorf("OLA FFTSize/KernelLen/Latency = %d/%d/%d", ola.FFTSize(), ola.KernelLen(), ola.Latency())
	}

	ols, err := NewOverlapSaveEngine(ir, 32)
	if err != nil {
		t.Fatal(err)
	}
	if ols.FFTSize() != 256 || ols.KernelLen() != 100 || ols.Latency() != 0 {
		t.Errorf("OLS FFTSize/KernelLen/Latency = %d/%d/%d", ols.FFTSize(), ols.KernelLen(), ols.Latency())
	}

	wola, err := NewWeightedOverlapAddEngine(ir, 32)
	if err != nil {
		t.Fatal(err)
	}
	if wola.FFTSize() != 256 || wola.Hop() != 16 || wola.Latency() != 16 {
		t.Errorf("WOLA FFTSize/Hop/Latency = %d/%d/%d", wola.FFTSize(), wola.Hop(), wola.Latency())
	}
	if wola.BlockLen() != 32 || wola.Channels() != 1 || wola.KernelLen() != 100 {
		t.Errorf("WOLA BlockLen/Channels/KernelLen = %d/%d/%d", wola.BlockLen(), wola.Channels(), wola.KernelLen())
	}
}

func TestWeightedOverlapAddRootHann(t *testing.T) {
	const blockLen = 64

	t.Run("unit impulse is exact", func(t *testing.T) {
		ir := mustTensor(t, [][][]float64{{{1}}, {{-0.5}}})
		w, err := NewWeightedOverlapAddEngine(ir, blockLen, WithRootHannWindows())
		if err != nil {
			t.Fatal(err)
		}
		if err := w.SelectImpulseResponse(1); err != nil {
			t.Fatal(err)
		}

		input := noiseInput(1, 10*blockLen)
		out := stream(t, w, input)
		want := testutil.Delay(testutil.Scale(-0.5, input[0]), blockLen/2, len(out[0]))
		testutil.RequireSliceNearlyEqual(t, out[0], want, 1e-12)
	})

	t.Run("long IR is approximated", func(t *testing.T) {
		raw := noiseIRs(1, 1, 3*blockLen)
		w, err := NewWeightedOverlapAddEngine(mustTensor(t, raw), blockLen, WithRootHannWindows())
		if err != nil {
			t.Fatal(err)
		}

		input := noiseInput(1, 20*blockLen)
		out := stream(t, w, input)
		want := reference(t, input[0], raw[0][0], w.Latency(), len(out[0]))

		testutil.RequireFinite(t, out[0])
		rel, err := testutil.RelativeError(out[0], want)
		if err != nil {
			t.Fatal(err)
		}
		if rel < 1e-6 {
			t.Fatalf("root-Hann synthesis reproduced a long IR exactly (rel %.3g)", rel)
		}
	})
}

func TestBaselineReset(t *testing.T) {
	ir := mustTensor(t, noiseIRs(1, 2, 90))
	input := noiseInput(2, 8*32)

	for _, bld := range builders {
		t.Run(bld.name, func(t *testing.T) {
			fresh, err := bld.build(ir, 32)
			if err != nil {
				t.Fatal(err)
			}
			want := stream(t, fresh, input)

			p, err := bld.build(ir, 32)
			if err != nil {
				t.Fatal(err)
			}
			stream(t, p, noiseInput(2, 5*32))
			p.Reset()

			got := stream(t, p, input)
			for ch := range got {
				testutil.RequireSliceNearlyEqual(t, got[ch], want[ch], 0)
			}
		})
	}
}

// switchEnergy streams a DC signal, switches from IR 0 to IR 1 after block
// 10, and returns the first-difference energy of the latency-compensated
// output around the switch.
func switchEnergy(t *testing.T, p Processor) float64 {
	t.Helper()

	n := p.BlockLen()
	input := [][]float64{testutil.DC(1, 24*n)}

	src := makeBlock(1, n)
	dst := makeBlock(1, n)
	var out []float64

	for b := range 24 {
		copy(src[0], input[0][b*n:(b+1)*n])
		if err := p.ProcessTo(dst, src); err != nil {
			t.Fatalf("ProcessTo: %v", err)
		}
		out = append(out, dst[0]...)

		if b == 10 {
			if err := p.SelectImpulseResponse(1); err != nil {
				t.Fatal(err)
			}
		}
	}

	out = out[p.Latency():]

	energy := 0.0
	for i := 8 * n; i < 16*n; i++ {
		d := out[i] - out[i-1]
		energy += d * d
	}
	return energy
}

func TestSwitchContinuity(t *testing.T) {
	const (
		blockLen = 64
		irLen    = 64
	)

	tests := []struct {
		name string
		ir0  []float64
		ir1  []float64
	}{
		{"delta sign flip", testutil.Impulse(irLen, 0), testutil.Scale(-1, testutil.Impulse(irLen, 0))},
		{"decay sign flip", testutil.Geometric(1, 0.5, irLen), testutil.Geometric(-1, 0.5, irLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ir := mustTensor(t, [][][]float64{{tt.ir0}, {tt.ir1}})

			energies := make(map[string]float64, len(builders))
			for _, bld := range builders {
				p, err := bld.build(ir, blockLen)
				if err != nil {
					t.Fatalf("%s: %v", bld.name, err)
				}
				energies[bld.name] = switchEnergy(t, p)
			}

			// A hard switch from +1 to -1 on DC is a step of 2.
			if energies["ola"] < 3.9 {
				t.Errorf("OLA switch energy = %v, expected a step of about 4", energies["ola"])
			}
			if energies["ols"] < 3.9 {
				t.Errorf("OLS switch energy = %v, expected a step of about 4", energies["ols"])
			}

			tv := energies["tvolap"]
			if tv >= energies["ola"]/10 {
				t.Errorf("TVOLAP switch energy %v not clearly below OLA %v", tv, energies["ola"])
			}
			if tv >= energies["wola"] {
				t.Errorf("TVOLAP switch energy %v not below WOLA %v", tv, energies["wola"])
			}
		})
	}
}

func BenchmarkBaselines(b *testing.B) {
	const (
		blockLen = 256
		irLen    = 4096
	)

	tensor, err := NewTensor(noiseIRs(2, 2, irLen))
	if err != nil {
		b.Fatal(err)
	}

	for _, bld := range builders {
		b.Run(bld.name, func(b *testing.B) {
			p, err := bld.build(tensor, blockLen)
			if err != nil {
				b.Fatal(err)
			}
			src := noiseInput(2, blockLen)
			dst := makeBlock(2, blockLen)

			b.ReportAllocs()
			for b.Loop() {
				if err := p.ProcessTo(dst, src); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
