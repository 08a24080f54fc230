package switching

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-tvolap/dsp/conv"
	"github.com/cwbudde/algo-tvolap/internal/testutil"
)

func gainTensor(t *testing.T, gains ...float64) conv.Tensor {
	t.Helper()
	ir := make([][][]float64, len(gains))
	for i, g := range gains {
		ir[i] = [][]float64{{g}}
	}
	tensor, err := conv.NewTensor(ir)
	if err != nil {
		t.Fatalf("NewTensor: %v", err)
	}
	return tensor
}

func TestDifferenceEnergy(t *testing.T) {
	x := []float64{0, 1, 1, 3}

	tests := []struct {
		name       string
		start, end int
		energy     float64
		peak       float64
	}{
		{"full", 1, 4, 5, 2},
		{"clamped", -10, 100, 5, 2},
		{"single step", 1, 2, 1, 1},
		{"flat", 2, 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := DifferenceEnergy(x, tt.start, tt.end)
			if err != nil {
				t.Fatalf("DifferenceEnergy: %v", err)
			}
			if e != tt.energy {
				t.Errorf("DifferenceEnergy = %v, want %v", e, tt.energy)
			}

			p, err := PeakStep(x, tt.start, tt.end)
			if err != nil {
				t.Fatalf("PeakStep: %v", err)
			}
			if p != tt.peak {
				t.Errorf("PeakStep = %v, want %v", p, tt.peak)
			}
		})
	}
}

func TestDifferenceEnergyEmptyRange(t *testing.T) {
	tests := []struct {
		name       string
		x          []float64
		start, end int
	}{
		{"reversed", []float64{1, 2, 3}, 3, 2},
		{"single sample", []float64{1}, 0, 1},
		{"past end", []float64{1, 2, 3}, 5, 9},
		{"nil", nil, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DifferenceEnergy(tt.x, tt.start, tt.end); !errors.Is(err, ErrEmptyRange) {
				t.Errorf("DifferenceEnergy err = %v, want ErrEmptyRange", err)
			}
			if _, err := PeakStep(tt.x, tt.start, tt.end); !errors.Is(err, ErrEmptyRange) {
				t.Errorf("PeakStep err = %v, want ErrEmptyRange", err)
			}
		})
	}
}

func TestErrorEnergy(t *testing.T) {
	got := []float64{1, 2, 3, 4}
	want := []float64{1, 0, 3, 1, 9}

	e, err := ErrorEnergy(got, want, 0, 10)
	if err != nil {
		t.Fatalf("ErrorEnergy: %v", err)
	}
	if e != 13 {
		t.Errorf("ErrorEnergy = %v, want 13", e)
	}

	e, err = ErrorEnergy(got, want, 2, 3)
	if err != nil {
		t.Fatalf("ErrorEnergy: %v", err)
	}
	if e != 0 {
		t.Errorf("ErrorEnergy = %v, want 0", e)
	}

	if _, err := ErrorEnergy(got, want, 4, 5); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("err = %v, want ErrEmptyRange", err)
	}
}

func TestRunCompensatesLatency(t *testing.T) {
	const blockLen = 32

	ir := gainTensor(t, 0.5)
	input := [][]float64{testutil.DeterministicNoise(9, 1, 5*blockLen+7)}

	tv, err := conv.NewEngine(ir, blockLen)
	if err != nil {
		t.Fatal(err)
	}
	wola, err := conv.NewWeightedOverlapAddEngine(ir, blockLen)
	if err != nil {
		t.Fatal(err)
	}
	ola, err := conv.NewOverlapAddEngine(ir, blockLen)
	if err != nil {
		t.Fatal(err)
	}

	want := testutil.Scale(0.5, input[0])

	for _, p := range []conv.Processor{tv, wola, ola} {
		out, err := Run(p, input, nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(out) != 1 || len(out[0]) != len(input[0]) {
			t.Fatalf("output shape %dx%d", len(out), len(out[0]))
		}
		testutil.RequireSliceNearlyEqual(t, out[0], want, 1e-12)
	}
}

func TestRunSwitches(t *testing.T) {
	const blockLen = 32

	p, err := conv.NewOverlapAddEngine(gainTensor(t, 1, 2, -1), blockLen)
	if err != nil {
		t.Fatal(err)
	}

	input := [][]float64{testutil.DC(1, 6*blockLen)}
	out, err := Run(p, input, []Switch{{Block: 1, ID: 1}, {Block: 3, ID: 2}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, v := range out[0] {
		want := 1.0
		switch {
		case i >= 4*blockLen:
			want = -1
		case i >= 2*blockLen:
			want = 2
		}
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}

	if p.ActiveImpulseResponse() != 2 {
		t.Errorf("ActiveImpulseResponse() = %d, want 2", p.ActiveImpulseResponse())
	}
}

func TestRunErrors(t *testing.T) {
	p, err := conv.NewEngine(gainTensor(t, 1, 2), 32)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		input    [][]float64
		switches []Switch
		want     error
	}{
		{"channel mismatch", [][]float64{{1}, {1}}, nil, conv.ErrChannelMismatch},
		{"empty input", [][]float64{{}}, nil, conv.ErrEmptyInput},
		{"bad switch id", [][]float64{testutil.DC(1, 64)}, []Switch{{Block: 0, ID: 5}}, conv.ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Run(p, tt.input, tt.switches); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSwitchBoundary(t *testing.T) {
	if got := (Switch{Block: 3, ID: 1}).Boundary(64); got != 256 {
		t.Fatalf("Boundary = %d, want 256", got)
	}
}
