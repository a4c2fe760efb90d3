package partition

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nathantp/gpu-stream-compact/pkg/block"
	"github.com/nathantp/gpu-stream-compact/pkg/device"
)

// ThreeWay partitions input into three classes: elements satisfying firstOp
// go to outFirst, remaining elements satisfying secondOp go to outSecond,
// and everything else goes to outUnselected, each preserving original
// relative order. counts[0] and counts[1] receive the first- and
// second-class totals (the unselected total is the remainder). A nil
// scratch makes this a size query.
//
// firstOp is evaluated before secondOp; an element satisfying both is
// first-class.
func ThreeWay[T any](scratch []byte, scratchBytes *int,
	input []T, outFirst, outSecond, outUnselected []T, counts []uint32,
	firstOp, secondOp Predicate[T],
	stream *device.Stream, cfg Config) error {

	cfg = cfg.withDefaults()
	n := len(input)
	ntiles := cfg.numTiles(n)

	if scratchBytes == nil {
		return errors.Wrap(ErrConfiguration, "Nil scratch size pointer")
	}
	required := scratchSize(ntiles, 2)
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
	if firstOp == nil || secondOp == nil {
		return errors.Wrap(ErrConfiguration, "Nil select predicate")
	}
	if len(outFirst) < n || len(outSecond) < n || len(outUnselected) < n {
		return errors.Wrapf(ErrConfiguration,
			"All output buffers must hold %v elements (have %v, %v, %v)",
			n, len(outFirst), len(outSecond), len(outUnselected))
	}
	if len(counts) < 2 {
		return errors.Wrap(ErrConfiguration, "Count buffer must hold 2 elements")
	}
	if stream == nil {
		return errors.Wrap(ErrConfiguration, "Nil stream")
	}

	if n == 0 {
		counts[0] = 0
		counts[1] = 0
		return nil
	}

	words, err := carveCounters(scratch, scratchWords(ntiles, 2))
	if err != nil {
		return err
	}
	tileFirst := words[: ntiles+1 : ntiles+1]
	tileSecond := words[ntiles+1:]

	gs := cfg.GroupSize
	ipw := cfg.ItemsPerWorker
	tileSz := cfg.tileSize()

	classify := func(v T) int {
		if firstOp(v) {
			return classFirst
		}
		if secondOp(v) {
			return classSecond
		}
		return classUnselected
	}

	wfirst := make([][]uint32, ntiles)
	wsecond := make([][]uint32, ntiles)
	for t := 0; t < ntiles; t++ {
		wfirst[t] = make([]uint32, gs)
		wsecond[t] = make([]uint32, gs)
	}

	// Pass 1: per-tile counts for the first and second classes.
	err = stream.Launch(ntiles, gs, func(g *device.Group, lid int) {
		gid := g.ID()
		tileBase := gid * tileSz

		var cFirst, cSecond uint32
		for i := 0; i < ipw; i++ {
			idx := tileBase + i*gs + lid
			if idx >= n {
				continue
			}
			switch classify(input[idx]) {
			case classFirst:
				cFirst++
			case classSecond:
				cSecond++
			}
		}
		wfirst[gid][lid] = cFirst
		wsecond[gid][lid] = cSecond
		g.Barrier()

		if lid == 0 {
			var sFirst, sSecond uint32
			for w := 0; w < gs; w++ {
				sFirst += wfirst[gid][w]
				sSecond += wsecond[gid][w]
			}
			tileFirst[gid] = sFirst
			tileSecond[gid] = sSecond
		}
	})
	if err != nil {
		return launchErr(err, "Count pass failed")
	}

	// Pass 2: exclusive prefixes over both per-tile count arrays.
	err = stream.Launch(1, 1, func(g *device.Group, lid int) {
		var runFirst, runSecond uint32
		for t := 0; t < ntiles; t++ {
			cFirst, cSecond := tileFirst[t], tileSecond[t]
			tileFirst[t], tileSecond[t] = runFirst, runSecond
			runFirst += cFirst
			runSecond += cSecond
		}
		tileFirst[ntiles] = runFirst
		tileSecond[ntiles] = runSecond
	})
	if err != nil {
		return launchErr(err, "Offset scan failed")
	}

	// Pass 3: scatter each tile's elements to the three output buffers.
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

		classes := make([]int, ipw)
		var cFirst, cSecond uint32
		for i := 0; i < ipw; i++ {
			idx := tileBase + lid*ipw + i
			if idx >= n {
				classes[i] = classUnselected
				continue
			}
			classes[i] = classify(items[i])
			switch classes[i] {
			case classFirst:
				cFirst++
			case classSecond:
				cSecond++
			}
		}
		wfirst[gid][lid] = cFirst
		wsecond[gid][lid] = cSecond
		g.Barrier()

		firstRank, secondRank := 0, 0
		for w := 0; w < lid; w++ {
			firstRank += (int)(wfirst[gid][w])
			secondRank += (int)(wsecond[gid][w])
		}

		firstBase := (int)(tileFirst[gid])
		secondBase := (int)(tileSecond[gid])
		unselBase := tileBase - firstBase - secondBase
		for i := 0; i < ipw; i++ {
			idx := tileBase + lid*ipw + i
			if idx >= n {
				break
			}
			localPos := lid*ipw + i
			switch classes[i] {
			case classFirst:
				outFirst[firstBase+firstRank] = items[i]
				firstRank++
			case classSecond:
				outSecond[secondBase+secondRank] = items[i]
				secondRank++
			default:
				outUnselected[unselBase+localPos-firstRank-secondRank] = items[i]
			}
		}
	})
	if err != nil {
		return launchErr(err, "Scatter pass failed")
	}

	counts[0] = tileFirst[ntiles]
	counts[1] = tileSecond[ntiles]
	return nil
}

const (
	classFirst = iota
	classSecond
	classUnselected
)
