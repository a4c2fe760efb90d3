// Package partition implements device-wide stream compaction: stable
// partition of an input buffer into selected and unselected classes (or
// three classes), with exact counts, executed as data-parallel kernel
// passes over independently scheduled worker groups.
//
// Every entry point follows the same two-step protocol. Called with a nil
// scratch buffer it is a size query: it writes the number of temporary
// storage bytes the run will need to *scratchBytes and does no data
// movement. Called again with a caller-allocated scratch of at least that
// size it performs the partition. The scratch layout is engine-private and
// must not be interpreted; a scratch allocation may be reused across runs
// with identical parameters but never shared between in-flight runs.
package partition

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nathantp/gpu-stream-compact/pkg/block"
	"github.com/nathantp/gpu-stream-compact/pkg/device"
)

// A Predicate classifies one element. It must be pure: it may be evaluated
// more than once per element, concurrently and in any order, and must not
// retain state across calls.
type Predicate[T any] func(T) bool

// Flagged partitions input by a parallel flag buffer: element i is selected
// iff flags[i] is not the zero value of F. Selected elements are written to
// the front of output in their original relative order, unselected elements
// follow them, also in original order, and count[0] receives the number of
// selected elements. A nil scratch makes this a size query (see the package
// comment).
func Flagged[T any, F comparable](scratch []byte, scratchBytes *int,
	input []T, flags []F, output []T, count []uint32,
	stream *device.Stream, cfg Config) error {

	if scratch != nil && len(flags) != len(input) {
		return errors.Wrapf(ErrConfiguration,
			"Flag buffer length %v does not match input length %v", len(flags), len(input))
	}

	var zero F
	return twoWay(scratch, scratchBytes, input, output, count, stream, cfg,
		func(i int, _ T) bool { return flags[i] != zero })
}

// If partitions input by a predicate evaluated on each element. Output
// ordering and count semantics match Flagged.
func If[T any](scratch []byte, scratchBytes *int,
	input []T, output []T, count []uint32, pred Predicate[T],
	stream *device.Stream, cfg Config) error {

	if scratch != nil && pred == nil {
		return errors.Wrap(ErrConfiguration, "Nil select predicate")
	}

	return twoWay(scratch, scratchBytes, input, output, count, stream, cfg,
		func(_ int, v T) bool { return pred(v) })
}

// Shared two-way engine. The selector sees both the element's global index
// and its value so both flag-driven and predicate-driven modes fit.
//
// Three passes on the stream:
//  1. every tile publishes its selected count to the scratch counters
//  2. a scan pass turns the counters into exclusive per-tile base offsets
//     (plus the grand total in the trailing slot)
//  3. every tile re-reads its elements and scatters them to
//     base[class] + rank-within-tile
//
// No tile writes output before pass 2 completes, so each write offset equals
// the number of same-class elements at strictly smaller input indices:
// output order is defined purely by input index, never by tile completion
// order.
func twoWay[T any](scratch []byte, scratchBytes *int,
	input, output []T, count []uint32,
	stream *device.Stream, cfg Config, sel func(int, T) bool) error {

	cfg = cfg.withDefaults()
	n := len(input)
	ntiles := cfg.numTiles(n)

	if scratchBytes == nil {
		return errors.Wrap(ErrConfiguration, "Nil scratch size pointer")
	}
	required := scratchSize(ntiles, 1)
	if scratch == nil {
		*scratchBytes = required
		return nil
	}

	if len(scratch) < required || *scratchBytes < required {
		return errors.Wrapf(ErrInsufficientScratch, "Need %v bytes, have %v", required, len(scratch))
	}
	if (uint64)(n) > math.MaxUint32 {
		return errors.Wrapf(ErrConfiguration, "Element count %v exceeds count type range", n)
	}
	if len(output) < n {
		return errors.Wrapf(ErrConfiguration, "Output buffer length %v < input length %v", len(output), n)
	}
	if len(count) < 1 {
		return errors.Wrap(ErrConfiguration, "Count buffer must hold 1 element")
	}
	if stream == nil {
		return errors.Wrap(ErrConfiguration, "Nil stream")
	}

	if n == 0 {
		count[0] = 0
		return nil
	}

	tileSel, err := carveCounters(scratch, scratchWords(ntiles, 1))
	if err != nil {
		return err
	}

	gs := cfg.GroupSize
	ipw := cfg.ItemsPerWorker
	tileSz := cfg.tileSize()

	// Per-group shared memory for the worker-level reductions and scans.
	wcounts := make([][]uint32, ntiles)
	for t := range wcounts {
		wcounts[t] = make([]uint32, gs)
	}

	// Pass 1: per-tile selected counts.
	err = stream.Launch(ntiles, gs, func(g *device.Group, lid int) {
		gid := g.ID()
		tileBase := gid * tileSz

		c := (uint32)(0)
		for i := 0; i < ipw; i++ {
			idx := tileBase + i*gs + lid
			if idx < n && sel(idx, input[idx]) {
				c++
			}
		}
		wcounts[gid][lid] = c
		g.Barrier()

		if lid == 0 {
			sum := (uint32)(0)
			for w := 0; w < gs; w++ {
				sum += wcounts[gid][w]
			}
			tileSel[gid] = sum
		}
	})
	if err != nil {
		return launchErr(err, "Count pass failed")
	}

	// Pass 2: exclusive prefix over per-tile counts. A single worker walks
	// the counters in tile order; the trailing slot receives the total.
	err = stream.Launch(1, 1, func(g *device.Group, lid int) {
		run := (uint32)(0)
		for t := 0; t < ntiles; t++ {
			c := tileSel[t]
			tileSel[t] = run
			run += c
		}
		tileSel[ntiles] = run
	})
	if err != nil {
		return launchErr(err, "Offset scan failed")
	}

	total := (int)(tileSel[ntiles])

	// Pass 3: scatter. Tiles load striped for coalescing, exchange to the
	// blocked arrangement so each worker ranks a contiguous input-order run,
	// then write through the globally consistent base offsets.
	exchanges := make([]*block.Exchange[T], ntiles)
	for t := range exchanges {
		exchanges[t] = block.NewExchange[T](gs, ipw)
	}

	var zero T
	err = stream.Launch(ntiles, gs, func(g *device.Group, lid int) {
		gid := g.ID()
		tileBase := gid * tileSz
		tile := input[tileBase:min(tileBase+tileSz, n)]

		items := make([]T, ipw)
		block.LoadStripedGuarded(lid, gs, tile, items, zero)
		exchanges[gid].StripedToBlocked(g, lid, items, items)

		selected := make([]bool, ipw)
		c := (uint32)(0)
		for i := 0; i < ipw; i++ {
			idx := tileBase + lid*ipw + i
			if idx < n && sel(idx, items[i]) {
				selected[i] = true
				c++
			}
		}
		wcounts[gid][lid] = c
		g.Barrier()

		// Exclusive scan over the per-worker counts gives this worker's
		// starting rank among the tile's selected elements.
		selRank := 0
		for w := 0; w < lid; w++ {
			selRank += (int)(wcounts[gid][w])
		}

		selBase := (int)(tileSel[gid])
		unselBase := total + tileBase - selBase
		for i := 0; i < ipw; i++ {
			idx := tileBase + lid*ipw + i
			if idx >= n {
				break
			}
			localPos := lid*ipw + i
			if selected[i] {
				output[selBase+selRank] = items[i]
				selRank++
			} else {
				output[unselBase+localPos-selRank] = items[i]
			}
		}
	})
	if err != nil {
		return launchErr(err, "Scatter pass failed")
	}

	// Counts become caller-visible only once every tile has written.
	count[0] = tileSel[ntiles]
	return nil
}
