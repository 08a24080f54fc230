package spectrum

import (
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// Magnitude returns |X[k]| for each complex spectrum bin.
//
// Scratch buffers are pooled internally, so in steady state this allocates
// only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))
	split(re, im, in)

	vecmath.Magnitude(out, re, im)
	putScratch(buf)
	return out
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))
	split(re, im, in)

	vecmath.Power(out, re, im)
	putScratch(buf)
	return out
}

// Energy returns the time-domain energy sum(x[n]^2) of the real signal of
// length fftSize whose half spectrum (fftSize/2+1 bins, unnormalized forward
// transform) is in.
//
// This is Parseval's relation for a real FFT: interior bins stand for their
// mirrored negative-frequency partners and are counted twice.
func Energy(in []complex128, fftSize int) float64 {
	if len(in) == 0 || fftSize <= 0 {
		return 0
	}

	pow := Power(in)
	half := fftSize / 2

	sum := 0.0
	for k, p := range pow {
		if k == 0 || k == half {
			sum += p
			continue
		}
		sum += 2 * p
	}

	return sum / float64(fftSize)
}

func split(re, im []float64, in []complex128) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}
