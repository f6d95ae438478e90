package channel

import (
	"testing"

	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

func makeBatch[T any](pool *databatch.BufferPool[T], t tag.Tag, items ...T) *databatch.MicroBatch[T] {
	wb := pool.Get()
	for _, it := range items {
		wb.Push(it)
	}
	return &databatch.MicroBatch[T]{Tag: t, Data: wb.Finalize()}
}

func TestPipelinePushPull(t *testing.T) {
	p := NewPipeline[int](Info{ID: 1}, 4)
	pool := databatch.NewBufferPool[int](4)

	res, err := p.Push(makeBatch(pool, tag.Root, 1, 2, 3))
	require.NoError(t, err)
	require.Equal(t, Pushed, res)

	got, err := p.TryPull()
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
}

func TestPipelineWouldBlockWhenFull(t *testing.T) {
	p := NewPipeline[int](Info{ID: 1}, 1)
	pool := databatch.NewBufferPool[int](4)

	res, _ := p.Push(makeBatch(pool, tag.Root, 1))
	require.Equal(t, Pushed, res)
	res, _ = p.Push(makeBatch(pool, tag.Root, 2))
	require.Equal(t, WouldBlock, res)
}

func TestPipelineCancelDiscardsBufferedAndFuturePushes(t *testing.T) {
	p := NewPipeline[int](Info{ID: 1}, 4)
	pool := databatch.NewBufferPool[int](4)

	scope := tag.Root.Child(0)
	_, _ = p.Push(makeBatch(pool, scope, 1))
	p.Cancel(scope)
	_, _ = p.Push(makeBatch(pool, scope, 2))

	got, err := p.TryPull()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPipelineCancelCoversDescendantScopes(t *testing.T) {
	p := NewPipeline[int](Info{ID: 1}, 4)
	pool := databatch.NewBufferPool[int](4)

	p.Cancel(tag.Root)
	child := tag.Root.Child(2)
	_, _ = p.Push(makeBatch(pool, child, 9))

	got, err := p.TryPull()
	require.NoError(t, err)
	require.Nil(t, got)
}
