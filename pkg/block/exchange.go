// Package block implements cooperative block-level data rearrangement: the
// exchange primitive that moves a tile of elements between the blocked and
// striped register layouts, plus the direct load/store helpers used to stage
// tiles between global buffers and per-worker private items.
//
// Layouts, for a group of G workers holding I items each over a tile of G*I
// elements:
//
//	blocked: worker w owns tile[w*I .. (w+1)*I)
//	striped: worker w owns tile[w], tile[w+G], tile[w+2G], ...
//
// Striped matches coalesced global memory access; blocked gives each worker
// a contiguous run of the tile for sequential per-element work.
package block

import "github.com/nathantp/gpu-stream-compact/pkg/device"

// An Exchange transposes a tile between the two layouts through a shared
// scratch of exactly groupSize*itemsPerWorker slots. One Exchange belongs to
// exactly one group for the duration of a kernel; workers never read each
// other's private items directly, all movement goes through the scratch.
//
// Every worker of the group must call the same method with the same shape,
// the two internal barriers require symmetric entry.
type Exchange[T any] struct {
	groupSize      int
	itemsPerWorker int
	scratch        []T
}

// NewExchange allocates the shared scratch for one group. The group size
// does not need to be a power of two; all addressing is plain div/mod.
func NewExchange[T any](groupSize, itemsPerWorker int) *Exchange[T] {
	return &Exchange[T]{
		groupSize:      groupSize,
		itemsPerWorker: itemsPerWorker,
		scratch:        make([]T, groupSize*itemsPerWorker),
	}
}

// BlockedToStriped converts the tile from the blocked to the striped
// arrangement. in holds worker lid's blocked items, out receives its striped
// items; in and out may be the same slice.
func (self *Exchange[T]) BlockedToStriped(g *device.Group, lid int, in, out []T) {
	for i := 0; i < self.itemsPerWorker; i++ {
		self.scratch[lid*self.itemsPerWorker+i] = in[i]
	}
	g.Barrier()
	for i := 0; i < self.itemsPerWorker; i++ {
		out[i] = self.scratch[i*self.groupSize+lid]
	}
	g.Barrier()
}

// StripedToBlocked converts the tile from the striped to the blocked
// arrangement. Inverse of BlockedToStriped.
func (self *Exchange[T]) StripedToBlocked(g *device.Group, lid int, in, out []T) {
	for i := 0; i < self.itemsPerWorker; i++ {
		self.scratch[i*self.groupSize+lid] = in[i]
	}
	g.Barrier()
	for i := 0; i < self.itemsPerWorker; i++ {
		out[i] = self.scratch[lid*self.itemsPerWorker+i]
	}
	g.Barrier()
}
