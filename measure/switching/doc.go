// Package switching measures the artifacts a block convolver produces when
// its impulse response is switched mid-stream.
//
// [Run] streams a signal through a [conv.Processor], switching impulse
// responses at given block indices, and returns the latency-compensated
// output. The metrics then look at the output around the switch points:
//
//   - DifferenceEnergy: energy of the first difference, which a smooth
//     crossfade keeps small and a step at a block edge does not
//   - PeakStep: the largest sample-to-sample jump
//   - ErrorEnergy: energy of the deviation from a reference signal
//
// [Compare] runs the same experiment over several engines.
//
// # Usage
//
//	switches := []switching.Switch{{Block: 63, ID: 1}, {Block: 127, ID: 0}}
//	reports, err := switching.Compare(entries, input, switches, 256)
//	for _, r := range reports {
//		fmt.Printf("%s: %.3g\n", r.Name, r.Energy)
//	}
package switching
