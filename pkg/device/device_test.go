package device

import (
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestLaunchRunsEveryWorker(t *testing.T) {
	ngroups := 17
	groupSize := 33

	stream := NewStream(StreamConfig{})

	visited := make([][]int32, ngroups)
	for g := range visited {
		visited[g] = make([]int32, groupSize)
	}

	err := stream.Launch(ngroups, groupSize, func(g *Group, lid int) {
		atomic.AddInt32(&visited[g.ID()][lid], 1)
	})
	require.Nil(t, err, "Launch returned an error")

	for g := 0; g < ngroups; g++ {
		for lid := 0; lid < groupSize; lid++ {
			require.Equalf(t, (int32)(1), visited[g][lid], "Worker %v:%v ran wrong number of times", g, lid)
		}
	}
}

func TestLaunchZeroGroups(t *testing.T) {
	stream := NewStream(StreamConfig{})
	err := stream.Launch(0, 64, func(g *Group, lid int) {
		t.Error("Kernel ran for an empty launch")
	})
	require.Nil(t, err, "Empty launch returned an error")
}

// Writes made before a barrier must be visible to every worker after it.
func TestBarrierVisibility(t *testing.T) {
	groupSize := 64
	rounds := 10

	stream := NewStream(StreamConfig{})
	shared := make([]int, groupSize)

	err := stream.Launch(1, groupSize, func(g *Group, lid int) {
		for r := 0; r < rounds; r++ {
			shared[lid] = r*groupSize + lid
			g.Barrier()

			want := 0
			got := 0
			for w := 0; w < groupSize; w++ {
				want += r*groupSize + w
				got += shared[w]
			}
			if got != want {
				t.Errorf("Round %v: worker %v saw stale values (sum %v, want %v)", r, lid, got, want)
			}
			g.Barrier()
		}
	})
	require.Nil(t, err, "Launch returned an error")
}

func TestGroupSizeLimit(t *testing.T) {
	stream := NewStream(StreamConfig{MaxGroupSize: 128})

	err := stream.Launch(1, 129, func(g *Group, lid int) {})
	require.NotNil(t, err, "Oversized group was accepted")
	require.Equal(t, ErrPlatformLimit, errors.Cause(err), "Wrong error for oversized group")

	err = stream.Launch(1, 128, func(g *Group, lid int) {})
	require.Nil(t, err, "Maximum group size was rejected")
}

func TestBadGeometry(t *testing.T) {
	stream := NewStream(StreamConfig{})
	err := stream.Launch(1, 0, func(g *Group, lid int) {})
	require.NotNil(t, err, "Zero group size was accepted")
}

// A faulting worker must fail the launch without hanging its siblings at the
// group barrier.
func TestKernelFault(t *testing.T) {
	groupSize := 32

	stream := NewStream(StreamConfig{})
	err := stream.Launch(4, groupSize, func(g *Group, lid int) {
		if g.ID() == 2 && lid == 7 {
			panic("worker fault")
		}
		g.Barrier()
	})
	require.NotNil(t, err, "Faulting launch reported success")
	require.Equal(t, ErrKernelFault, errors.Cause(err), "Wrong error for kernel fault")
}
