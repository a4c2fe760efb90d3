package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/nathantp/gpu-stream-compact/pkg/benchmark"
	"github.com/nathantp/gpu-stream-compact/pkg/device"
	"github.com/nathantp/gpu-stream-compact/pkg/partition"
)

func main() {
	retcode := 0
	defer func() { os.Exit(retcode) }()

	size := flag.Int("size", 1024*1024*32, "number of values")
	trials := flag.Int("trials", 5, "number of timed batches per configuration")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	stream := device.NewStream(device.StreamConfig{Logger: log})

	// Quick self-check before committing to the full benchmark grid.
	if err := selfCheck(stream); err != nil {
		log.WithError(err).Error("Partition self-check failed")
		retcode = 1
		return
	}

	stats, err := benchmark.RunBenchmarks(stream, *size, *trials, log)
	if err != nil {
		log.WithError(err).Error("Benchmark failure")
		retcode = 1
	}

	for name, runStats := range stats {
		log.Infof("Results for %v:", name)
		benchmark.ReportStats(runStats, os.Stdout)
	}
}

func selfCheck(stream *device.Stream) error {
	input := benchmark.RandomInputs(100000)
	flags := benchmark.RandomFlags(100000, 0.5)
	output := make([]uint32, len(input))
	count := make([]uint32, 1)
	cfg := partition.Config{}

	var scratchBytes int
	err := partition.Flagged(nil, &scratchBytes, input, flags, output, count, stream, cfg)
	if err != nil {
		return err
	}

	scratch := make([]byte, scratchBytes)
	err = partition.Flagged(scratch, &scratchBytes, input, flags, output, count, stream, cfg)
	if err != nil {
		return err
	}

	return benchmark.CheckPartition(input, flags, output, count[0])
}
