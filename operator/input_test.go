package operator

import (
	"testing"

	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

func TestInputHandleTracksClosingAcrossSources(t *testing.T) {
	pipe := channel.NewPipeline[int](channel.Info{ID: 1}, 8)
	ih := NewInputHandle[int](0, pipe, 0, 2)
	pool := databatch.NewBufferPool[int](4)

	wb := pool.Get()
	wb.Push(1)
	wb.Push(2)
	rb := wb.Finalize()
	_, _ = pipe.Push(&databatch.MicroBatch[int]{Tag: tag.Root, Data: rb})

	b, err := ih.TryNext()
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	require.Empty(t, ih.DrainClosed())

	_, _ = pipe.Push(&databatch.MicroBatch[int]{Tag: tag.Root, End: &databatch.EndOfScope{
		Tag: tag.Root, SourceWeight: databatch.SingleWeight(0), TotalSend: 2,
	}})
	end1, err := ih.TryNext()
	require.NoError(t, err)
	require.True(t, end1.IsEnd())
	require.Empty(t, ih.DrainClosed(), "only one of two expected sources has reported")

	_, _ = pipe.Push(&databatch.MicroBatch[int]{Tag: tag.Root, End: &databatch.EndOfScope{
		Tag: tag.Root, SourceWeight: databatch.SingleWeight(1), TotalSend: 0,
	}})
	_, err = ih.TryNext()
	require.NoError(t, err)
	require.Equal(t, []tag.Tag{tag.Root}, ih.DrainClosed())
}

func TestInputHandleCancelPropagatesToChannel(t *testing.T) {
	pipe := channel.NewPipeline[int](channel.Info{ID: 1}, 8)
	ih := NewInputHandle[int](0, pipe, 0, 1)

	ih.Cancel(tag.Root)

	pool := databatch.NewBufferPool[int](4)
	wb := pool.Get()
	wb.Push(9)
	_, _ = pipe.Push(&databatch.MicroBatch[int]{Tag: tag.Root, Data: wb.Finalize()})

	b, err := ih.TryNext()
	require.NoError(t, err)
	require.Nil(t, b)
}
