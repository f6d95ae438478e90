package channel

import (
	"testing"

	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

func TestExchangeRoutesAndFlushesAtBatchSize(t *testing.T) {
	pool := databatch.NewBufferPool[int](2)
	ex := NewExchange[int](Info{ID: 1, TargetPeers: 4}, pool, func(v int) uint64 { return uint64(v) }, 2)

	_, err := ex.Push(makeBatch(databatch.NewBufferPool[int](8), tag.Root, 1, 2, 3, 4, 5, 6, 7, 8))
	require.NoError(t, err)

	total := 0
	for i := 0; i < 4; i++ {
		for {
			b, err := ex.TryPullFor(i)
			require.NoError(t, err)
			if b == nil {
				break
			}
			total += b.Len()
		}
	}
	require.Equal(t, 8, total)
}

func TestExchangeEndOfScopeReachesEveryTarget(t *testing.T) {
	pool := databatch.NewBufferPool[int](4)
	ex := NewExchange[int](Info{ID: 1, TargetPeers: 3}, pool, func(v int) uint64 { return uint64(v) }, 4)

	batch := makeBatch(databatch.NewBufferPool[int](4), tag.Root)
	batch.End = &databatch.EndOfScope{Tag: tag.Root, SourceWeight: databatch.AllWeight(), TotalSend: 0}

	_, err := ex.Push(batch)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		b, err := ex.TryPullFor(i)
		require.NoError(t, err)
		require.NotNil(t, b)
		require.True(t, b.IsEnd())
	}
}

func TestExchangeRetryAfterWouldBlockDoesNotDuplicateItems(t *testing.T) {
	pool := databatch.NewBufferPool[int](8)
	// capacity 1 forces a flush attempt after every single item, and a
	// matching outbox buffer of 1 so the second flush in this batch
	// finds the outbox already full.
	ex := NewExchange[int](Info{ID: 1, TargetPeers: 1}, pool, func(v int) uint64 { return 0 }, 1)

	batch := makeBatch(databatch.NewBufferPool[int](8), tag.Root, 1, 2, 3)

	res, err := ex.Push(batch)
	require.NoError(t, err)
	require.Equal(t, WouldBlock, res)

	first, err := ex.TryPullFor(0)
	require.NoError(t, err)
	require.NotNil(t, first)
	total := first.Len()

	res, err = ex.Push(batch)
	require.NoError(t, err)
	require.Equal(t, Pushed, res)

	for {
		b, err := ex.TryPullFor(0)
		require.NoError(t, err)
		if b == nil {
			break
		}
		total += b.Len()
	}
	require.Equal(t, 3, total)
}

func TestExchangeCancelDiscardsPush(t *testing.T) {
	pool := databatch.NewBufferPool[int](4)
	ex := NewExchange[int](Info{ID: 1, TargetPeers: 2}, pool, func(v int) uint64 { return uint64(v) }, 4)

	ex.Cancel(tag.Root)
	res, err := ex.Push(makeBatch(databatch.NewBufferPool[int](4), tag.Root, 1, 2))
	require.NoError(t, err)
	require.Equal(t, Pushed, res)

	b, _ := ex.TryPullFor(0)
	require.Nil(t, b)
}
