package switching

import (
	"fmt"

	"github.com/cwbudde/algo-tvolap/dsp/conv"
)

// Entry names a processor taking part in a comparison.
type Entry struct {
	Name      string
	Processor conv.Processor
}

// Report holds the switch artifacts measured for one processor.
type Report struct {
	Name     string
	Latency  int
	Energy   float64 // difference energy, summed over channels and switches
	PeakStep float64 // largest step near any switch
}

// Compare runs every engine over the same input and switches, after a Reset
// and selecting impulse response 0, and measures the output within span
// samples on either side of each switch boundary.
func Compare(engines []Entry, input [][]float64, switches []Switch, span int) ([]Report, error) {
	if len(engines) == 0 {
		return nil, ErrNoEngines
	}

	reports := make([]Report, 0, len(engines))

	for _, entry := range engines {
		p := entry.Processor
		p.Reset()
		if err := p.SelectImpulseResponse(0); err != nil {
			return nil, fmt.Errorf("switching: %s: %w", entry.Name, err)
		}

		out, err := Run(p, input, switches)
		if err != nil {
			return nil, fmt.Errorf("switching: %s: %w", entry.Name, err)
		}

		r := Report{Name: entry.Name, Latency: p.Latency()}
		measured := false

		for _, s := range switches {
			at := s.Boundary(p.BlockLen())
			for _, x := range out {
				e, err := DifferenceEnergy(x, at-span, at+span)
				if err != nil {
					// Boundary outside the signal.
					continue
				}
				step, _ := PeakStep(x, at-span, at+span)

				r.Energy += e
				r.PeakStep = max(r.PeakStep, step)
				measured = true
			}
		}

		if !measured {
			return nil, fmt.Errorf("%w: no switch boundary inside the signal", ErrEmptyRange)
		}

		reports = append(reports, r)
	}

	return reports, nil
}
