package benchmark

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nathantp/gpu-stream-compact/pkg/device"
)

func TestPerfTimer(t *testing.T) {
	timer := &PerfTimer{}

	timer.Start()
	time.Sleep(time.Millisecond)
	timer.Record()
	require.Equal(t, 1, len(timer.Vals), "Record didn't save a datapoint")
	require.Greater(t, timer.Vals[0], 0.0, "Recorded a non-positive duration")

	other := &PerfTimer{Vals: []float64{1, 2, 3}}
	timer.Update(other)
	require.Equal(t, 4, len(timer.Vals), "Update didn't merge datapoints")
}

func TestReportStats(t *testing.T) {
	stats := RunStats{
		"TTest": &PerfTimer{Vals: []float64{1e9, 3e9}},
	}

	var buf bytes.Buffer
	ReportStats(stats, &buf)
	out := buf.String()
	require.True(t, strings.Contains(out, "TTest (mean):"), "Report is missing the mean")
	require.True(t, strings.Contains(out, "TTest (std):"), "Report is missing the stdev")
}

func TestRandomFlags(t *testing.T) {
	flags := RandomFlags(10000, 0.25)

	truthy := 0
	for _, f := range flags {
		if f != 0 {
			truthy++
		}
	}
	// Loose bound, the flags only need the right rough density.
	require.Greater(t, truthy, 1500, "Too few truthy flags for p=0.25")
	require.Less(t, truthy, 3500, "Too many truthy flags for p=0.25")
}

func TestCheckPartition(t *testing.T) {
	input := []uint32{5, 3, 8, 1, 9, 2}
	flags := []uint8{1, 0, 1, 0, 1, 0}

	err := CheckPartition(input, flags, []uint32{5, 8, 9, 3, 1, 2}, 3)
	require.Nil(t, err, "Correct partition was rejected")

	err = CheckPartition(input, flags, []uint32{8, 5, 9, 3, 1, 2}, 3)
	require.NotNil(t, err, "Unstable partition was accepted")

	err = CheckPartition(input, flags, []uint32{5, 8, 9, 3, 1, 2}, 2)
	require.NotNil(t, err, "Wrong count was accepted")
}

func benchTestConfig(size int) BenchConfig {
	return BenchConfig{
		Size:              size,
		Trials:            1,
		Probability:       0.5,
		SecondProbability: 0.75,
	}
}

// End-to-end smoke runs of each benchmark mode at a small size; the runs
// verify their own outputs against the sequential reference.
func TestBenchFlagged(t *testing.T) {
	stream := device.NewStream(device.StreamConfig{})
	stats := make(RunStats)
	err := BenchFlagged(stream, benchTestConfig(50000), stats)
	require.Nil(t, err, "Flagged benchmark failed")
	require.NotZero(t, len(stats["TFlagged"].Vals), "No timings recorded")
}

func TestBenchIf(t *testing.T) {
	stream := device.NewStream(device.StreamConfig{})
	stats := make(RunStats)
	err := BenchIf(stream, benchTestConfig(50000), stats)
	require.Nil(t, err, "Predicate benchmark failed")
	require.NotZero(t, len(stats["TIf"].Vals), "No timings recorded")
}

func TestBenchThreeWay(t *testing.T) {
	stream := device.NewStream(device.StreamConfig{})
	stats := make(RunStats)
	err := BenchThreeWay(stream, benchTestConfig(50000), stats)
	require.Nil(t, err, "Three-way benchmark failed")
	require.NotZero(t, len(stats["TThreeWay"].Vals), "No timings recorded")
}
