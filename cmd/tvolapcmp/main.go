// Command tvolapcmp compares impulse response switching artifacts of the
// TVOLAP convolver against overlap-add, overlap-save and weighted
// overlap-add baselines.
//
// A sine is convolved with two synthetic decaying-noise impulse responses,
// alternating between them every few blocks. For every engine the table
// shows the first-difference energy and the largest sample step around the
// switch points, and the error of an unswitched run against direct
// convolution.
//
// Usage:
//
//	tvolapcmp [flags] [engine ...]
//
// Examples:
//
//	tvolapcmp
//	tvolapcmp -block 512 -irlen 8192 tvolap ola
//	tvolapcmp -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-tvolap/dsp/conv"
	"github.com/cwbudde/algo-tvolap/measure/switching"
)

type engineEntry struct {
	name  string
	build func(ir conv.Tensor, blockLen int) (conv.Processor, error)
}

var registry = []engineEntry{
	{"tvolap", func(ir conv.Tensor, n int) (conv.Processor, error) {
		return conv.NewEngine(ir, n)
	}},
	{"ola", func(ir conv.Tensor, n int) (conv.Processor, error) {
		return conv.NewOverlapAddEngine(ir, n)
	}},
	{"ols", func(ir conv.Tensor, n int) (conv.Processor, error) {
		return conv.NewOverlapSaveEngine(ir, n)
	}},
	{"wola", func(ir conv.Tensor, n int) (conv.Processor, error) {
		return conv.NewWeightedOverlapAddEngine(ir, n)
	}},
	{"wola-roothann", func(ir conv.Tensor, n int) (conv.Processor, error) {
		return conv.NewWeightedOverlapAddEngine(ir, n, conv.WithRootHannWindows())
	}},
}

type config struct {
	blockLen int
	irLen    int
	channels int
	rate     float64
	seconds  float64
	freq     float64
	every    int
	span     int
	seed     uint64
	engines  []string
}

var errUsage = errors.New("invalid arguments")

func main() {
	fs := flag.NewFlagSet("tvolapcmp", flag.ExitOnError)

	var cfg config
	fs.IntVar(&cfg.blockLen, "block", 256, "block length in samples (power of two >= 32)")
	fs.IntVar(&cfg.irLen, "irlen", 1024, "impulse response length in samples")
	fs.IntVar(&cfg.channels, "channels", 2, "channel count")
	fs.Float64Var(&cfg.rate, "rate", 44100, "sample rate in Hz")
	fs.Float64Var(&cfg.seconds, "seconds", 2, "signal duration in seconds")
	fs.Float64Var(&cfg.freq, "freq", 300, "test sine frequency in Hz")
	fs.IntVar(&cfg.every, "every", 64, "blocks between impulse response switches")
	fs.IntVar(&cfg.span, "span", 0, "samples measured on each side of a switch (default: block length)")
	fs.Uint64Var(&cfg.seed, "seed", 1, "seed for the synthetic impulse responses")
	list := fs.Bool("list", false, "list available engines")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tvolapcmp [flags] [engine ...]\n\n")
		fmt.Fprintf(os.Stderr, "Compares impulse response switching artifacts of block convolvers.\n")
		fmt.Fprintf(os.Stderr, "Without arguments all engines are compared.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tvolapcmp\n")
		fmt.Fprintf(os.Stderr, "  tvolapcmp -block 512 -irlen 8192 tvolap ola\n")
		fmt.Fprintf(os.Stderr, "  tvolapcmp -list\n")
	}
	_ = fs.Parse(os.Args[1:])

	if *list {
		for _, e := range registry {
			fmt.Println(e.name)
		}
		return
	}

	cfg.engines = fs.Args()
	if cfg.span <= 0 {
		cfg.span = cfg.blockLen
	}

	if err := run(os.Stdout, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, cfg config) error {
	entries, err := resolveEngines(cfg.engines)
	if err != nil {
		return err
	}

	if cfg.channels <= 0 || cfg.irLen <= 0 || cfg.every <= 0 || cfg.rate <= 0 {
		return fmt.Errorf("%w: channels, irlen, every and rate must be positive", errUsage)
	}

	total := int(cfg.seconds * cfg.rate)
	if total < cfg.blockLen {
		return fmt.Errorf("%w: signal shorter than one block", errUsage)
	}

	irs := syntheticIRs(cfg.seed, cfg.channels, cfg.irLen)
	tensor, err := conv.NewTensor(irs)
	if err != nil {
		return err
	}

	input := make([][]float64, cfg.channels)
	for ch := range input {
		input[ch] = sine(cfg.freq, cfg.rate, float64(ch)*math.Pi/4, total)
	}

	var switches []switching.Switch
	id := 0
	for b := cfg.every - 1; (b+1)*cfg.blockLen < total; b += cfg.every {
		id ^= 1
		switches = append(switches, switching.Switch{Block: b, ID: id})
	}

	procs := make([]switching.Entry, 0, len(entries))
	for _, e := range entries {
		p, err := e.build(tensor, cfg.blockLen)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		procs = append(procs, switching.Entry{Name: e.name, Processor: p})
	}

	reference, err := directReference(input, irs)
	if err != nil {
		return err
	}

	exact := make([]float64, len(procs))
	for i, e := range procs {
		e.Processor.Reset()
		if err := e.Processor.SelectImpulseResponse(0); err != nil {
			return err
		}
		out, err := switching.Run(e.Processor, input, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
		exact[i], err = relativeErrorDB(out, reference)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
	}

	reports, err := switching.Compare(procs, input, switches, cfg.span)
	if err != nil {
		return err
	}

	return printReports(w, cfg, len(switches), reports, exact)
}

func resolveEngines(names []string) ([]engineEntry, error) {
	if len(names) == 0 {
		return registry, nil
	}

	byName := make(map[string]engineEntry, len(registry))
	for _, e := range registry {
		byName[e.name] = e
	}

	var result []engineEntry
	for _, name := range names {
		e, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown engine %q (use -list to see available)", errUsage, name)
		}
		result = append(result, e)
	}
	return result, nil
}

// syntheticIRs returns two impulse responses (IR x channel x sample) of
// exponentially decaying noise, -60 dB at the end.
func syntheticIRs(seed uint64, channels, length int) [][][]float64 {
	rng := rand.New(rand.NewPCG(seed, 0))
	rate := math.Log(1000) / float64(length)

	irs := make([][][]float64, 2)
	for id := range irs {
		irs[id] = make([][]float64, channels)
		for ch := range irs[id] {
			row := make([]float64, length)
			for i := range row {
				row[i] = (rng.Float64()*2 - 1) * math.Exp(-rate*float64(i))
			}
			irs[id][ch] = row
		}
	}
	return irs
}

func sine(freq, rate, phase float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freq / rate
	for i := range out {
		out[i] = 0.5 * math.Sin(step*float64(i)+phase)
	}
	return out
}

// directReference convolves every channel with IR 0, truncated to the input
// length.
func directReference(input [][]float64, irs [][][]float64) ([][]float64, error) {
	ref := make([][]float64, len(input))
	for ch, x := range input {
		full, err := conv.Direct(x, irs[0][ch])
		if err != nil {
			return nil, err
		}
		ref[ch] = full[:len(x)]
	}
	return ref, nil
}

func relativeErrorDB(got, want [][]float64) (float64, error) {
	var errEnergy, refEnergy float64
	for ch := range got {
		e, err := switching.ErrorEnergy(got[ch], want[ch], 0, len(want[ch]))
		if err != nil {
			return 0, err
		}
		errEnergy += e
		for _, v := range want[ch] {
			refEnergy += v * v
		}
	}
	if errEnergy == 0 || refEnergy == 0 {
		return math.Inf(-1), nil
	}
	return 10 * math.Log10(errEnergy/refEnergy), nil
}

func printReports(w io.Writer, cfg config, numSwitches int, reports []switching.Report, exact []float64) error {
	if _, err := fmt.Fprintf(w, "block %d, IR %d samples x %d channels, %d switches, span +-%d\n\n",
		cfg.blockLen, cfg.irLen, cfg.channels, numSwitches, cfg.span); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Engine\tLatency\tDiff Energy\tDiff Energy [dB]\tPeak Step\tStatic Error [dB]\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "------\t-------\t-----------\t----------------\t---------\t-----------------\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}

	for i, r := range reports {
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%.6g\t%.2f\t%.6g\t%.1f\n",
			r.Name,
			r.Latency,
			r.Energy,
			10*math.Log10(r.Energy),
			r.PeakStep,
			exact[i],
		); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
