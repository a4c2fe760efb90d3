package partition

import (
	"unsafe"

	"github.com/pkg/errors"
)

// The temporary storage handed to a run is an opaque byte buffer owned by
// the caller; the engine carves it into per-tile count arrays (the count
// type is uint32, matching the count outputs). The queried size includes
// alignment headroom so any []byte the caller allocates is acceptable.

const scratchAlign = 64

// Number of uint32 counter words a run needs: one prefix slot per tile per
// class, plus a trailing total per class.
func scratchWords(ntiles, nclasses int) int {
	return (ntiles + 1) * nclasses
}

func scratchSize(ntiles, nclasses int) int {
	return scratchWords(ntiles, nclasses)*4 + scratchAlign
}

// Reinterprets the caller's scratch bytes as nwords aligned uint32 counters.
// The caller must have validated the buffer against scratchSize already.
func carveCounters(scratch []byte, nwords int) ([]uint32, error) {
	if len(scratch) < nwords*4+scratchAlign {
		return nil, errors.Wrapf(ErrInsufficientScratch,
			"Need %v bytes, have %v", nwords*4+scratchAlign, len(scratch))
	}

	base := uintptr(unsafe.Pointer(&scratch[0]))
	off := (int)((scratchAlign - base%scratchAlign) % scratchAlign)
	return unsafe.Slice((*uint32)(unsafe.Pointer(&scratch[off])), nwords), nil
}
