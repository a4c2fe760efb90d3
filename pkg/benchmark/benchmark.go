package benchmark

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nathantp/gpu-stream-compact/pkg/device"
	"github.com/nathantp/gpu-stream-compact/pkg/partition"
)

// Manual benchmarks for the partition engine (not managed by Go's
// benchmarking tool). Each run follows the canonical call sequence: size
// query with a nil scratch, allocate, warm-up runs, then timed batches.

const (
	defaultWarmup = 3
	batchSize     = 5
)

type BenchConfig struct {
	// Number of input elements.
	Size int

	// Number of timed batches.
	Trials int

	// Probability that an element is selected (first class for three-way).
	Probability float64

	// Probability for the second class (three-way only).
	SecondProbability float64
}

// BenchFlagged times flag-driven partition over random input and verifies
// the final output against the sequential reference.
func BenchFlagged(stream *device.Stream, cfg BenchConfig, stats RunStats) error {
	input := RandomInputs(cfg.Size)
	flags := RandomFlags(cfg.Size, cfg.Probability)
	output := make([]uint32, cfg.Size)
	count := make([]uint32, 1)
	pcfg := partition.Config{}

	var scratchBytes int
	err := partition.Flagged[uint32, uint8](nil, &scratchBytes, input, flags, output, count, stream, pcfg)
	if err != nil {
		return errors.Wrap(err, "Size query failed")
	}
	scratch := make([]byte, scratchBytes)

	run := func() error {
		return partition.Flagged(scratch, &scratchBytes, input, flags, output, count, stream, pcfg)
	}

	if err := timeRuns("TFlagged", run, cfg, stats); err != nil {
		return err
	}
	return CheckPartition(input, flags, output, count[0])
}

// BenchIf times predicate-driven partition. The predicate selects values
// below a cutoff chosen so roughly cfg.Probability of the input passes.
func BenchIf(stream *device.Stream, cfg BenchConfig, stats RunStats) error {
	input := RandomInputs(cfg.Size)
	output := make([]uint32, cfg.Size)
	count := make([]uint32, 1)
	pcfg := partition.Config{}

	cutoff := cutoffFor(cfg.Probability)
	pred := func(v uint32) bool { return v < cutoff }

	var scratchBytes int
	err := partition.If(nil, &scratchBytes, input, output, count, pred, stream, pcfg)
	if err != nil {
		return errors.Wrap(err, "Size query failed")
	}
	scratch := make([]byte, scratchBytes)

	run := func() error {
		return partition.If(scratch, &scratchBytes, input, output, count, pred, stream, pcfg)
	}

	if err := timeRuns("TIf", run, cfg, stats); err != nil {
		return err
	}

	// Reuse the flagged checker by materializing the predicate as flags.
	flags := make([]uint8, cfg.Size)
	for i, v := range input {
		if pred(v) {
			flags[i] = 1
		}
	}
	return CheckPartition(input, flags, output, count[0])
}

// BenchThreeWay times three-way partition with cutoffs at Probability and
// SecondProbability.
func BenchThreeWay(stream *device.Stream, cfg BenchConfig, stats RunStats) error {
	input := RandomInputs(cfg.Size)
	outFirst := make([]uint32, cfg.Size)
	outSecond := make([]uint32, cfg.Size)
	outUnsel := make([]uint32, cfg.Size)
	counts := make([]uint32, 2)
	pcfg := partition.Config{}

	firstCutoff := cutoffFor(cfg.Probability)
	secondCutoff := cutoffFor(cfg.SecondProbability)
	firstOp := func(v uint32) bool { return v < firstCutoff }
	secondOp := func(v uint32) bool { return v < secondCutoff }

	var scratchBytes int
	err := partition.ThreeWay(nil, &scratchBytes, input, outFirst, outSecond, outUnsel,
		counts, firstOp, secondOp, stream, pcfg)
	if err != nil {
		return errors.Wrap(err, "Size query failed")
	}
	scratch := make([]byte, scratchBytes)

	run := func() error {
		return partition.ThreeWay(scratch, &scratchBytes, input, outFirst, outSecond, outUnsel,
			counts, firstOp, secondOp, stream, pcfg)
	}

	if err := timeRuns("TThreeWay", run, cfg, stats); err != nil {
		return err
	}
	return CheckThreeWay(input, firstOp, secondOp, outFirst, outSecond, outUnsel, counts)
}

// Warm-up runs followed by cfg.Trials timed batches recorded under name.
func timeRuns(name string, run func() error, cfg BenchConfig, stats RunStats) error {
	timer, ok := stats[name]
	if !ok {
		timer = &PerfTimer{}
		stats[name] = timer
	}

	for i := 0; i < defaultWarmup; i++ {
		if err := run(); err != nil {
			return errors.Wrapf(err, "Warm-up run %v failed", i)
		}
	}

	for trial := 0; trial < cfg.Trials; trial++ {
		timer.Start()
		for i := 0; i < batchSize; i++ {
			if err := run(); err != nil {
				timer.Stop()
				return errors.Wrapf(err, "Timed run failed on trial %v", trial)
			}
		}
		timer.Record()
	}
	return nil
}

// Maps a selection probability onto a uint32 cutoff value.
func cutoffFor(p float64) uint32 {
	if p >= 1.0 {
		return ^(uint32)(0)
	}
	if p <= 0 {
		return 0
	}
	return (uint32)(p * (float64)(^(uint32)(0)))
}

// Runs the full probability grid for every mode. Even if an error is
// returned, the returned stats may be non-nil and contain valid results up
// until the error.
func RunBenchmarks(stream *device.Stream, size, trials int, log logrus.FieldLogger) (map[string]RunStats, error) {
	probabilities := []float64{0.05, 0.25, 0.5, 0.75}

	stats := make(map[string]RunStats)
	for _, p := range probabilities {
		cfg := BenchConfig{
			Size:              size,
			Trials:            trials,
			Probability:       p,
			SecondProbability: min(p+0.25, 1.0),
		}

		log.WithFields(logrus.Fields{"size": size, "p": p}).Info("Benchmarking flagged partition")
		runStats := make(RunStats)
		if err := BenchFlagged(stream, cfg, runStats); err != nil {
			return stats, errors.Wrapf(err, "Flagged benchmark failed at p=%v", p)
		}
		stats[fmt.Sprintf("Flagged/p=%v", p)] = runStats

		log.WithFields(logrus.Fields{"size": size, "p": p}).Info("Benchmarking predicate partition")
		runStats = make(RunStats)
		if err := BenchIf(stream, cfg, runStats); err != nil {
			return stats, errors.Wrapf(err, "Predicate benchmark failed at p=%v", p)
		}
		stats[fmt.Sprintf("If/p=%v", p)] = runStats

		log.WithFields(logrus.Fields{"size": size, "p": p}).Info("Benchmarking three-way partition")
		runStats = make(RunStats)
		if err := BenchThreeWay(stream, cfg, runStats); err != nil {
			return stats, errors.Wrapf(err, "Three-way benchmark failed at p=%v", p)
		}
		stats[fmt.Sprintf("ThreeWay/p=%v", p)] = runStats
	}
	return stats, nil
}
