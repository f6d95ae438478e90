package iteration

import (
	"testing"

	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

func runToCompletion(t *testing.T, ops []operator.Core, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		for _, op := range ops {
			sig := op.OnReceive()
			require.False(t, sig.IsFailed(), "operator %s failed: %v", op.Info().Name, sig.Err)
		}
	}
}

func TestIterateAppliesBodyNTimes(t *testing.T) {
	reg := channel.NewRegistry()
	b := dataflow.NewBuilder(dataflow.Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	src := dataflow.FromSlice(b, "src", []int{1, 2, 3})
	looped := Iterate(src, "double3x", 3, func(s *dataflow.Stream[int]) *dataflow.Stream[int] {
		return dataflow.Map(s, "double", func(v int) (int, error) { return v * 2, nil })
	})

	var got []int
	dataflow.SinkInto(looped, "sink", func(_ tag.Tag, items []int) { got = append(got, items...) }, nil)

	runToCompletion(t, b.Operators(), 16)
	require.ElementsMatch(t, []int{8, 16, 24}, got)
}

func TestIterateZeroTimesIsIdentity(t *testing.T) {
	reg := channel.NewRegistry()
	b := dataflow.NewBuilder(dataflow.Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	src := dataflow.FromSlice(b, "src", []int{5, 6})
	looped := Iterate(src, "noop", 0, func(s *dataflow.Stream[int]) *dataflow.Stream[int] {
		return dataflow.Map(s, "double", func(v int) (int, error) { return v * 2, nil })
	})

	var got []int
	dataflow.SinkInto(looped, "sink", func(_ tag.Tag, items []int) { got = append(got, items...) }, nil)

	runToCompletion(t, b.Operators(), 8)
	require.ElementsMatch(t, []int{5, 6}, got)
}

func TestIterateUntilStopsEarlyOnConvergence(t *testing.T) {
	reg := channel.NewRegistry()
	b := dataflow.NewBuilder(dataflow.Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	src := dataflow.FromSlice(b, "src", []int{1, 10, 100})
	converged := func(v int) bool { return v >= 8 }
	looped := IterateUntil(src, "untilEight", 5, converged, func(s *dataflow.Stream[int]) *dataflow.Stream[int] {
		return dataflow.Map(s, "double", func(v int) (int, error) { return v * 2, nil })
	})

	var got []int
	dataflow.SinkInto(looped, "sink", func(_ tag.Tag, items []int) { got = append(got, items...) }, nil)

	runToCompletion(t, b.Operators(), 32)
	require.ElementsMatch(t, []int{8, 10, 100}, got)
}

func TestIterateUntilForcesExitAtCeiling(t *testing.T) {
	reg := channel.NewRegistry()
	b := dataflow.NewBuilder(dataflow.Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	src := dataflow.FromSlice(b, "src", []int{1})
	neverConverges := func(int) bool { return false }
	looped := IterateUntil(src, "neverConverges", 2, neverConverges, func(s *dataflow.Stream[int]) *dataflow.Stream[int] {
		return dataflow.Map(s, "inc", func(v int) (int, error) { return v + 1, nil })
	})

	var got []int
	dataflow.SinkInto(looped, "sink", func(_ tag.Tag, items []int) { got = append(got, items...) }, nil)

	runToCompletion(t, b.Operators(), 32)
	require.ElementsMatch(t, []int{2}, got)
}
