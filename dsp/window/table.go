package window

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// Table is a window generated once and applied many times.
//
// Streaming processors build one at construction and multiply every analysis
// frame with it, so the per-block path never evaluates a cosine.
type Table struct {
	typ    Type
	coeffs []float64
}

// NewTable precomputes a window of the given type and length.
func NewTable(t Type, length int, opts ...Option) (*Table, error) {
	if err := validateLength(length); err != nil {
		return nil, err
	}

	return &Table{
		typ:    t,
		coeffs: Generate(t, length, opts...),
	}, nil
}

// Type returns the window type the table was generated from.
func (w *Table) Type() Type {
	return w.typ
}

// Len returns the window length.
func (w *Table) Len() int {
	return len(w.coeffs)
}

// At returns coefficient i.
func (w *Table) At(i int) float64 {
	return w.coeffs[i]
}

// Coefficients returns a copy of the window coefficients.
func (w *Table) Coefficients() []float64 {
	return append([]float64(nil), w.coeffs...)
}

// ApplyTo writes src multiplied by the window into dst.
// Both slices must have length Len(); dst may alias src.
func (w *Table) ApplyTo(dst, src []float64) error {
	if len(dst) != len(w.coeffs) || len(src) != len(w.coeffs) {
		return fmt.Errorf("%w: window %d, src %d, dst %d", errMismatchedLength, len(w.coeffs), len(src), len(dst))
	}

	vecmath.MulBlock(dst, src, w.coeffs)
	return nil
}

// ApplyInPlace multiplies buf by the window.
func (w *Table) ApplyInPlace(buf []float64) error {
	if len(buf) != len(w.coeffs) {
		return fmt.Errorf("%w: window %d, buffer %d", errMismatchedLength, len(w.coeffs), len(buf))
	}

	vecmath.MulBlockInPlace(buf, w.coeffs)
	return nil
}
