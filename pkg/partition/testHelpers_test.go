package partition

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nathantp/gpu-stream-compact/pkg/device"
)

// Shared helpers for the partition tests: sequential reference partitions
// and a convenience wrapper that runs the size query and the run call in
// one shot against a freshly allocated scratch.

func testInputs(t *testing.T, n int) []int {
	rng := rand.New(rand.NewSource((int64)(n)))
	out := make([]int, n)
	for i := range out {
		out[i] = rng.Intn(1000)
	}
	return out
}

func testFlags(t *testing.T, n int, p float64) []uint8 {
	rng := rand.New(rand.NewSource((int64)(n) + 1))
	out := make([]uint8, n)
	for i := range out {
		if rng.Float64() < p {
			out[i] = 1
		}
	}
	return out
}

// Sequential reference for two-way partition: selected block then
// unselected block, both in input order.
func referencePartition(input []int, sel func(i int) bool) ([]int, int) {
	out := make([]int, 0, len(input))
	for i, v := range input {
		if sel(i) {
			out = append(out, v)
		}
	}
	nsel := len(out)
	for i, v := range input {
		if !sel(i) {
			out = append(out, v)
		}
	}
	return out, nsel
}

// Sequential reference for three-way partition.
func referenceThreeWay(input []int, firstOp, secondOp Predicate[int]) (first, second, unsel []int) {
	for _, v := range input {
		switch {
		case firstOp(v):
			first = append(first, v)
		case secondOp(v):
			second = append(second, v)
		default:
			unsel = append(unsel, v)
		}
	}
	return
}

// Size-query, allocate, run Flagged. Returns the output and selected count.
func runFlagged(t *testing.T, stream *device.Stream, cfg Config, input []int, flags []uint8) ([]int, uint32) {
	output := make([]int, len(input))
	count := make([]uint32, 1)

	var scratchBytes int
	err := Flagged(nil, &scratchBytes, input, flags, output, count, stream, cfg)
	require.Nil(t, err, "Size query failed")
	require.Greater(t, scratchBytes, 0, "Size query returned no storage requirement")

	scratch := make([]byte, scratchBytes)
	err = Flagged(scratch, &scratchBytes, input, flags, output, count, stream, cfg)
	require.Nil(t, err, "Run failed")
	return output, count[0]
}

// Size-query, allocate, run If.
func runIf(t *testing.T, stream *device.Stream, cfg Config, input []int, pred Predicate[int]) ([]int, uint32) {
	output := make([]int, len(input))
	count := make([]uint32, 1)

	var scratchBytes int
	err := If(nil, &scratchBytes, input, output, count, pred, stream, cfg)
	require.Nil(t, err, "Size query failed")

	scratch := make([]byte, scratchBytes)
	err = If(scratch, &scratchBytes, input, output, count, pred, stream, cfg)
	require.Nil(t, err, "Run failed")
	return output, count[0]
}

// Size-query, allocate, run ThreeWay.
func runThreeWay(t *testing.T, stream *device.Stream, cfg Config, input []int,
	firstOp, secondOp Predicate[int]) (outFirst, outSecond, outUnsel []int, counts []uint32) {

	outFirst = make([]int, len(input))
	outSecond = make([]int, len(input))
	outUnsel = make([]int, len(input))
	counts = make([]uint32, 2)

	var scratchBytes int
	err := ThreeWay(nil, &scratchBytes, input, outFirst, outSecond, outUnsel,
		counts, firstOp, secondOp, stream, cfg)
	require.Nil(t, err, "Size query failed")

	scratch := make([]byte, scratchBytes)
	err = ThreeWay(scratch, &scratchBytes, input, outFirst, outSecond, outUnsel,
		counts, firstOp, secondOp, stream, cfg)
	require.Nil(t, err, "Run failed")
	return
}

// Engine geometries exercised by the randomized tests. Small non-power-of-
// two groups force many ragged tiles out of modest inputs.
var testConfigs = []struct {
	name string
	cfg  Config
}{
	{"default", Config{}},
	{"tiny", Config{GroupSize: 4, ItemsPerWorker: 2}},
	{"nonPow2", Config{GroupSize: 33, ItemsPerWorker: 3}},
	{"wide", Config{GroupSize: 100, ItemsPerWorker: 7}},
}
