// Package conv implements block convolution of multichannel audio with a
// set of impulse responses that can be switched while the stream runs.
//
// [Engine] is the time-variant partitioned overlap-add (TVOLAP) convolver:
// uniformly partitioned, Hann-windowed with 50% overlap, so that switching
// the impulse response crossfades instead of stepping. Its output is the
// exact linear convolution delayed by one block.
//
// Three baselines share the same [Processor] contract and switch abruptly
// at block edges:
//
//   - [OverlapAddEngine]: zero-padded blocks, tail carried to the next block
//   - [OverlapSaveEngine]: sliding input history, aliased head discarded
//   - [WeightedOverlapAddEngine]: windowed half-overlapping frames, optionally
//     with root-Hann analysis and synthesis windows
//
// # Usage
//
// Impulse responses are passed as a [Tensor] (IR x channel x sample):
//
//	ir, err := conv.NewTensor(responses)
//	e, err := conv.NewEngine(ir, 256)
//
//	for block := range blocks {
//		err = e.ProcessTo(out, block)
//	}
//
// SelectImpulseResponse may be called from any goroutine, for example a UI
// or control thread; the change takes effect with the next processed block.
// [Interleaved] adapts any Processor to frame-interleaved host buffers.
//
// [Direct] is the O(N*M) reference convolution the engines are tested
// against.
package conv
