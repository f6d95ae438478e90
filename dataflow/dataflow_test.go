package dataflow

import (
	"testing"

	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

// runToCompletion repeatedly calls OnReceive on every operator in order;
// good enough for these small, single-tick-friendly tests without
// pulling in the full scheduler package.
func runToCompletion(t *testing.T, ops []operator.Core, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		for _, op := range ops {
			sig := op.OnReceive()
			require.False(t, sig.IsFailed(), "operator %s failed: %v", op.Info().Name, sig.Err)
		}
	}
}

func TestMapFilterSinkPipeline(t *testing.T) {
	reg := channel.NewRegistry()
	b := NewBuilder(Conf{BatchSize: 4, BatchCapacity: 4, Peers: 1}, 0, reg)

	src := FromSlice(b, "src", []int{1, 2, 3, 4, 5, 6})
	doubled := Map(src, "double", func(v int) (int, error) { return v * 2, nil })
	kept := Filter(doubled, "even", func(v int) bool { return v%4 == 0 })

	var got []int
	SinkInto(kept, "sink", func(_ tag.Tag, items []int) {
		got = append(got, items...)
	}, nil)

	runToCompletion(t, b.Operators(), 8)
	require.ElementsMatch(t, []int{4, 8, 12}, got)
}

func TestCountEmitsOnePerScope(t *testing.T) {
	reg := channel.NewRegistry()
	b := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	src := FromSlice(b, "src", []int{1, 2, 3, 4, 5})
	counted := Count(src, "count")

	var results []uint64
	SinkInto(counted, "sink", func(_ tag.Tag, items []uint64) {
		results = append(results, items...)
	}, nil)

	runToCompletion(t, b.Operators(), 8)
	require.Equal(t, []uint64{5}, results)
}

func TestFoldSumsPerScope(t *testing.T) {
	reg := channel.NewRegistry()
	b := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	src := FromSlice(b, "src", []int{1, 2, 3, 4})
	summed := Fold(src, "sum", func() int { return 0 }, func(acc int, v int) int { return acc + v })

	var results []int
	SinkInto(summed, "sink", func(_ tag.Tag, items []int) {
		results = append(results, items...)
	}, nil)

	runToCompletion(t, b.Operators(), 8)
	require.Equal(t, []int{10}, results)
}

func TestMergeUnionsBothInputs(t *testing.T) {
	reg := channel.NewRegistry()
	b := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	s1 := FromSlice(b, "s1", []int{1, 2, 3})
	s2 := FromSlice(b, "s2", []int{4, 5, 6})
	merged := Merge(s1, s2, "merge")

	total := 0
	SinkInto(merged, "sink", func(_ tag.Tag, items []int) {
		for _, v := range items {
			total += v
		}
	}, nil)

	runToCompletion(t, b.Operators(), 8)
	require.Equal(t, 21, total)
}

func TestRepartitionRoutesAcrossTwoWorkerBuilds(t *testing.T) {
	reg := channel.NewRegistry()

	b0 := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 2}, 0, reg)
	s0 := FromSlice(b0, "src", []int{0, 1, 2, 3, 4, 5, 6, 7})
	r0 := Repartition(s0, "repart", func(v int) uint64 { return uint64(v) })
	total0 := 0
	SinkInto(r0, "sink0", func(_ tag.Tag, items []int) {
		for _, v := range items {
			total0 += v
		}
	}, nil)

	b1 := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 2}, 1, reg)
	s1 := FromSlice(b1, "src", []int{0, 1, 2, 3, 4, 5, 6, 7})
	r1 := Repartition(s1, "repart", func(v int) uint64 { return uint64(v) })
	total1 := 0
	SinkInto(r1, "sink1", func(_ tag.Tag, items []int) {
		for _, v := range items {
			total1 += v
		}
	}, nil)

	all := append(append([]operator.Core{}, b0.Operators()...), b1.Operators()...)
	runToCompletion(t, all, 16)

	require.Equal(t, 28, total0+total1)
}

func TestAggregateConvergesOnWorkerZero(t *testing.T) {
	reg := channel.NewRegistry()

	b0 := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 2}, 0, reg)
	s0 := FromSlice(b0, "src", []int{1, 2, 3, 4})
	agg0 := Aggregate(s0, "agg")
	require.NotNil(t, agg0)
	total := 0
	SinkInto(agg0, "sink", func(_ tag.Tag, items []int) {
		for _, v := range items {
			total += v
		}
	}, nil)

	b1 := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 2}, 1, reg)
	s1 := FromSlice(b1, "src", []int{1, 2, 3, 4})
	agg1 := Aggregate(s1, "agg")
	require.Nil(t, agg1)

	all := append(append([]operator.Core{}, b0.Operators()...), b1.Operators()...)
	runToCompletion(t, all, 16)

	require.Equal(t, 10, total)
}

func TestCopiedFansOutToTwoSinks(t *testing.T) {
	reg := channel.NewRegistry()
	b := NewBuilder(Conf{BatchSize: 8, BatchCapacity: 8, Peers: 1}, 0, reg)

	src := FromSlice(b, "src", []int{1, 2, 3})
	streams := Copied(src, "copy", 2)
	require.Len(t, streams, 2)

	var got0, got1 []int
	SinkInto(streams[0], "sink0", func(_ tag.Tag, items []int) { got0 = append(got0, items...) }, nil)
	SinkInto(streams[1], "sink1", func(_ tag.Tag, items []int) { got1 = append(got1, items...) }, nil)

	runToCompletion(t, b.Operators(), 8)
	require.ElementsMatch(t, []int{1, 2, 3}, got0)
	require.ElementsMatch(t, []int{1, 2, 3}, got1)
}
