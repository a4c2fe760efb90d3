package device

import "sync"

// A reusable group-scoped rendezvous. Every worker of the group must call
// await() the same number of times; the generation counter lets the same
// barrier be reused for consecutive synchronization points without reset.
//
// This is a kernel-level primitive: it only ever coordinates the workers of
// one group, never whole launches (groups synchronize with each other only
// through launch boundaries).
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	size    int
	waiting int
	gen     uint64
	broken  bool
}

func newBarrier(size int) *barrier {
	b := &barrier{size: size}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (self *barrier) await() {
	self.mu.Lock()
	if self.broken {
		self.mu.Unlock()
		return
	}

	gen := self.gen
	self.waiting++
	if self.waiting == self.size {
		self.waiting = 0
		self.gen++
		self.cond.Broadcast()
		self.mu.Unlock()
		return
	}

	for gen == self.gen && !self.broken {
		self.cond.Wait()
	}
	self.mu.Unlock()
}

// abort permanently releases the barrier. Used when a worker faults and can
// never arrive, the surviving workers fall through every subsequent await()
// instead of hanging (their results are discarded by the failed launch).
func (self *barrier) abort() {
	self.mu.Lock()
	self.broken = true
	self.cond.Broadcast()
	self.mu.Unlock()
}
