// Package spectrum provides the real-valued FFT used by the convolution
// engines and a few spectrum-domain utilities.
//
// [Transform] wraps a fixed-size complex FFT plan and exposes it as a
// real-to-half-spectrum pair, which is all block convolution needs:
//
//	t, err := spectrum.NewTransform(1024)
//	bins := make([]complex128, t.Bins())
//	err = t.Forward(bins, frame)   // frame may be shorter than 1024
//	err = t.Inverse(out, bins)     // len(out) == 1024
//
// [Power], [Magnitude] and [Energy] operate on such half spectra.
package spectrum
