package benchmark

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"
)

// A helper object for timing events, the timer can be reused multiple times
// in order to derive averages or other statistics (Record() saves the
// current measurement and begins a new measurement).
type PerfTimer struct {
	Vals  []float64 // the stats module wants float64
	cur   time.Duration
	start time.Time
}

// Begin (or resume) the timer
func (self *PerfTimer) Start() {
	self.start = time.Now()
}

// Stop (or pause) the timer
func (self *PerfTimer) Stop() {
	self.cur += time.Since(self.start)
}

// Finalize the timer, adding it as a new datapoint and resetting the timer
// to 0.
func (self *PerfTimer) Record() {
	self.Stop()
	self.Vals = append(self.Vals, (float64)(self.cur))
	self.cur = 0
}

// Add the recorded values from new to the current object. Does not modify
// new.
func (self *PerfTimer) Update(new *PerfTimer) {
	self.Vals = append(self.Vals, new.Vals...)
}

// Collects timings for one benchmark configuration.
type RunStats map[string]*PerfTimer

func ReportStats(stats RunStats, writer io.Writer) {
	for name, timer := range stats {
		mean, stdev := stat.MeanStdDev(timer.Vals, nil)
		fmt.Fprintf(writer, "%v (mean):\t%vs\n", name, mean/1e9)
		fmt.Fprintf(writer, "%v (std):\t%vs\n", name, stdev/1e9)
	}
}

// Generate n random elements for benchmark and test inputs.
func RandomInputs(n int) []uint32 {
	rng := rand.New(rand.NewSource(0))
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = rng.Uint32()
	}
	return out
}

// Generate a flag buffer where each flag is truthy with probability p.
func RandomFlags(n int, p float64) []uint8 {
	rng := rand.New(rand.NewSource(1))
	out := make([]uint8, n)
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			out[i] = 1
		}
	}
	return out
}
