package partition

// Tuning parameters for the engine. The zero value selects the defaults,
// which are sized for throughput; tests shrink them to force many ragged
// tiles out of small inputs.
type Config struct {
	// Workers per group. Need not be a power of two.
	GroupSize int

	// Elements of the tile owned privately by each worker.
	ItemsPerWorker int
}

const (
	defaultGroupSize      = 256
	defaultItemsPerWorker = 4
)

func (self Config) withDefaults() Config {
	if self.GroupSize <= 0 {
		self.GroupSize = defaultGroupSize
	}
	if self.ItemsPerWorker <= 0 {
		self.ItemsPerWorker = defaultItemsPerWorker
	}
	return self
}

// Elements per tile.
func (self Config) tileSize() int {
	return self.GroupSize * self.ItemsPerWorker
}

func (self Config) numTiles(n int) int {
	tile := self.tileSize()
	return (n + tile - 1) / tile
}
