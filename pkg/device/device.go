package device

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// The largest group size any stream will accept. This matches the widest
// workgroup supported by the hardware we model, callers must check their
// group size against MaxGroupSize() before relying on group barriers.
const defaultMaxGroupSize = 1024

// Returned when a launch requests a group wider than the platform supports.
var ErrPlatformLimit = errors.New("group size exceeds platform maximum")

// Returned when a kernel worker panics. The launch is reported as failed
// and any buffers the kernel was writing are left in an unspecified state.
var ErrKernelFault = errors.New("kernel worker faulted")

// A Kernel is the body executed by every worker of every launched group.
// Workers of one group may synchronize through g.Barrier(); all workers of
// the group must reach each barrier or none may.
type Kernel func(g *Group, lid int)

type StreamConfig struct {
	// Maximum number of groups resident (executing) at once. Zero means
	// one resident group per CPU.
	MaxResidentGroups int64

	// Maximum workers per group. Zero means the platform default.
	MaxGroupSize int

	Logger logrus.FieldLogger
}

// A Stream is an in-order execution queue that kernels are launched on. It
// owns the occupancy limit for resident groups (the analogue of how many
// workgroups the hardware schedules concurrently). Streams are safe for
// concurrent use, but callers must not share scratch buffers between
// in-flight launches.
type Stream struct {
	log          logrus.FieldLogger
	occupancy    *semaphore.Weighted
	maxGroupSize int
}

func NewStream(cfg StreamConfig) *Stream {
	resident := cfg.MaxResidentGroups
	if resident <= 0 {
		resident = (int64)(runtime.NumCPU())
	}

	maxGroup := cfg.MaxGroupSize
	if maxGroup <= 0 {
		maxGroup = defaultMaxGroupSize
	}

	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}

	return &Stream{
		log:          log,
		occupancy:    semaphore.NewWeighted(resident),
		maxGroupSize: maxGroup,
	}
}

func (self *Stream) MaxGroupSize() int {
	return self.maxGroupSize
}

// Launch runs ngroups independent groups of groupSize workers each, all
// executing kern. Groups are scheduled independently (bounded only by the
// stream's occupancy limit) and never synchronize with each other. Launch
// does not return until every worker of every group has finished, so all
// writes made by the kernel are visible to the caller on return.
func (self *Stream) Launch(ngroups, groupSize int, kern Kernel) error {
	if ngroups < 0 || groupSize <= 0 {
		return errors.Errorf("Invalid launch geometry %vx%v", ngroups, groupSize)
	}
	if groupSize > self.maxGroupSize {
		return errors.Wrapf(ErrPlatformLimit, "Requested group size %v (max %v)", groupSize, self.maxGroupSize)
	}
	if ngroups == 0 {
		return nil
	}

	self.log.WithFields(logrus.Fields{
		"groups":    ngroups,
		"groupSize": groupSize,
	}).Debug("Launching kernel")

	var fault faultRecord
	var wg sync.WaitGroup
	wg.Add(ngroups)
	for gid := 0; gid < ngroups; gid++ {
		// Acquire cannot fail with a background context, but keep the
		// error path so a future cancellable launch stays honest.
		if err := self.occupancy.Acquire(context.Background(), 1); err != nil {
			wg.Done()
			return errors.Wrap(err, "Couldn't reserve group occupancy")
		}

		grp := &Group{id: gid, size: groupSize, bar: newBarrier(groupSize)}
		go func(grp *Group) {
			defer wg.Done()
			defer self.occupancy.Release(1)
			runGroup(grp, kern, &fault)
		}(grp)
	}
	wg.Wait()

	if err := fault.get(); err != nil {
		return err
	}
	return nil
}

// Runs every worker of one group to completion. A panicking worker breaks
// the group barrier so that its siblings cannot hang waiting for it.
func runGroup(grp *Group, kern Kernel, fault *faultRecord) {
	var wg sync.WaitGroup
	wg.Add(grp.size)
	for lid := 0; lid < grp.size; lid++ {
		go func(lid int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fault.set(errors.Wrapf(ErrKernelFault, "Group %v worker %v: %v", grp.id, lid, r))
					grp.bar.abort()
				}
			}()
			kern(grp, lid)
		}(lid)
	}
	wg.Wait()
}

// Records the first fault observed across all groups of a launch.
type faultRecord struct {
	mu  sync.Mutex
	err error
}

func (self *faultRecord) set(err error) {
	self.mu.Lock()
	if self.err == nil {
		self.err = err
	}
	self.mu.Unlock()
}

func (self *faultRecord) get() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.err
}

// A Group is the per-group handle passed to kernel workers.
type Group struct {
	id   int
	size int
	bar  *barrier
}

// ID is the group's index within the launch (0..ngroups-1).
func (self *Group) ID() int {
	return self.id
}

// Size is the number of workers in the group.
func (self *Group) Size() int {
	return self.size
}

// Barrier blocks until every worker of the group has called it. Writes made
// by any worker before the barrier are visible to every worker after it.
func (self *Group) Barrier() {
	self.bar.await()
}

func (self *Group) String() string {
	return fmt.Sprintf("group %v (%v workers)", self.id, self.size)
}
