package block

// Direct load/store helpers between a tile slice and one worker's private
// items. These are purely mechanical address computations; the guarded
// variants handle the ragged final tile of a buffer whose length is not a
// multiple of the tile size.

// LoadBlocked copies worker lid's contiguous run of the tile into items.
func LoadBlocked[T any](lid int, tile []T, items []T) {
	base := lid * len(items)
	copy(items, tile[base:base+len(items)])
}

// StoreBlocked writes worker lid's items back to its contiguous run.
func StoreBlocked[T any](lid int, tile []T, items []T) {
	base := lid * len(items)
	copy(tile[base:base+len(items)], items)
}

// LoadStriped copies worker lid's strided elements of the tile into items.
func LoadStriped[T any](lid, groupSize int, tile []T, items []T) {
	for i := range items {
		items[i] = tile[i*groupSize+lid]
	}
}

// StoreStriped writes worker lid's items back to its strided positions.
func StoreStriped[T any](lid, groupSize int, tile []T, items []T) {
	for i := range items {
		tile[i*groupSize+lid] = items[i]
	}
}

// LoadStripedGuarded is LoadStriped over a tile that may be shorter than
// groupSize*len(items). Out-of-range items are filled with def.
func LoadStripedGuarded[T any](lid, groupSize int, tile []T, items []T, def T) {
	for i := range items {
		idx := i*groupSize + lid
		if idx < len(tile) {
			items[i] = tile[idx]
		} else {
			items[i] = def
		}
	}
}

// StoreStripedGuarded is StoreStriped over a short tile; out-of-range items
// are dropped.
func StoreStripedGuarded[T any](lid, groupSize int, tile []T, items []T) {
	for i := range items {
		idx := i*groupSize + lid
		if idx < len(tile) {
			tile[idx] = items[i]
		}
	}
}

// LoadBlockedGuarded is LoadBlocked over a short tile, filling out-of-range
// items with def.
func LoadBlockedGuarded[T any](lid int, tile []T, items []T, def T) {
	for i := range items {
		idx := lid*len(items) + i
		if idx < len(tile) {
			items[i] = tile[idx]
		} else {
			items[i] = def
		}
	}
}

// StoreBlockedGuarded is StoreBlocked over a short tile; out-of-range items
// are dropped.
func StoreBlockedGuarded[T any](lid int, tile []T, items []T) {
	for i := range items {
		idx := lid*len(items) + i
		if idx < len(tile) {
			tile[idx] = items[i]
		}
	}
}
