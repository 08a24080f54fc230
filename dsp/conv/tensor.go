package conv

import "fmt"

// Tensor is a dense row-major array holding a set of impulse responses,
// indexed as IR x channel x sample.
//
// Shape carries the dimensions so that a tensor of the wrong rank can be
// detected and rejected instead of being silently reinterpreted.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor packs nested slices (IR x channel x sample) into a Tensor.
// Every IR must have the same channel count and every channel the same
// sample count.
func NewTensor(ir [][][]float64) (Tensor, error) {
	if len(ir) == 0 || len(ir[0]) == 0 || len(ir[0][0]) == 0 {
		return Tensor{}, fmt.Errorf("%w: empty dimension", ErrInvalidShape)
	}

	numIR, channels, samples := len(ir), len(ir[0]), len(ir[0][0])
	data := make([]float64, 0, numIR*channels*samples)

	for id, chans := range ir {
		if len(chans) != channels {
			return Tensor{}, fmt.Errorf("%w: IR %d has %d channels, want %d", ErrInvalidShape, id, len(chans), channels)
		}
		for ch, row := range chans {
			if len(row) != samples {
				return Tensor{}, fmt.Errorf("%w: IR %d channel %d has %d samples, want %d",
					ErrInvalidShape, id, ch, len(row), samples)
			}
			data = append(data, row...)
		}
	}

	return Tensor{Shape: []int{numIR, channels, samples}, Data: data}, nil
}

// Dims returns the IR count, channel count and samples per channel.
// The result is only meaningful for a tensor that passes validation.
func (t Tensor) Dims() (numIR, channels, samples int) {
	return t.Shape[0], t.Shape[1], t.Shape[2]
}

// Row returns the samples of one IR channel as a view into Data.
func (t Tensor) Row(id, ch int) []float64 {
	_, channels, samples := t.Dims()
	start := (id*channels + ch) * samples
	return t.Data[start : start+samples]
}

// validate checks rank, dimension sizes and backing length.
func (t Tensor) validate() error {
	if len(t.Shape) != 3 {
		return fmt.Errorf("%w: got %d dimensions", ErrInvalidShape, len(t.Shape))
	}

	total := 1
	for i, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("%w: dimension %d has size %d", ErrInvalidShape, i, d)
		}
		total *= d
	}

	if len(t.Data) != total {
		return fmt.Errorf("%w: shape %v needs %d values, got %d", ErrInvalidShape, t.Shape, total, len(t.Data))
	}

	return nil
}

// validateImpulseResponses runs the checks shared by every engine constructor.
func validateImpulseResponses(ir Tensor, blockLen int) error {
	if err := ir.validate(); err != nil {
		return err
	}
	if err := validateBlockLen(blockLen); err != nil {
		return err
	}

	_, channels, samples := ir.Dims()
	if channels > samples {
		return fmt.Errorf("%w: %d channels, %d samples (transposed input?)", ErrInvalidChannelLayout, channels, samples)
	}

	return nil
}
