package channel

import (
	"testing"

	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

func TestAggregateAllToOne(t *testing.T) {
	a := NewAggregate[int](Info{ID: 1, SourcePeers: 3, TargetPeers: 1, AggregateTarget: 0}, 8)
	pool := databatch.NewBufferPool[int](4)

	for _, v := range []int{1, 2, 3} {
		res, err := a.Push(makeBatch(pool, tag.Root, v))
		require.NoError(t, err)
		require.Equal(t, Pushed, res)
	}

	total := 0
	for {
		b, err := a.TryPull()
		require.NoError(t, err)
		if b == nil {
			break
		}
		total += b.Len()
	}
	require.Equal(t, 3, total)
}
