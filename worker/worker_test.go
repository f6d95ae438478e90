package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/event"
	"github.com/graphscope/pegasus-go/scheduler"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

func TestIdString(t *testing.T) {
	id := Id{JobIndex: 1, PeerIndex: 0, PeersTotal: 2, ServerIndex: 0, ServersTotal: 1}
	require.Contains(t, id.String(), "peer0")
	require.True(t, id.IsLocalTo(Id{ServerIndex: 0}))
	require.False(t, id.IsLocalTo(Id{ServerIndex: 1}))
}

func TestCurrentPanicsOutsideWorkerContext(t *testing.T) {
	require.Panics(t, func() { Current(context.Background()) })
}

func TestPoolSpawnRunsBuildFuncPerWorker(t *testing.T) {
	reg := channel.NewRegistry()
	conf := dataflow.Conf{BatchSize: 4, BatchCapacity: 4, Peers: 2}

	results := make([][]int, 2)
	gotIDs := make([]Id, 2)
	pool := NewPool(nil)
	ctx := context.Background()

	for peer := 0; peer < 2; peer++ {
		peer := peer
		b := dataflow.NewBuilder(conf, peer, reg)
		src := dataflow.FromSlice(b, "src", []int{peer*10 + 1, peer*10 + 2})
		doubled := dataflow.Map(src, "double", func(v int) (int, error) { return v * 2, nil })
		dataflow.SinkInto(doubled, "sink", func(_ tag.Tag, items []int) {
			results[peer] = append(results[peer], items...)
		}, nil)

		bus := event.NewBus(1, 16)
		id := Id{PeerIndex: peer, PeersTotal: 2, ServersTotal: 1}
		ops := b.Operators()

		pool.Spawn(ctx, id, bus, ops, func(ctx context.Context, gotID Id, sched *scheduler.Scheduler) error {
			gotIDs[gotID.PeerIndex] = Current(ctx)
			return sched.Run(ctx, 0, nil)
		})
	}

	pool.Wait()

	require.ElementsMatch(t, []int{2, 4}, results[0])
	require.ElementsMatch(t, []int{22, 24}, results[1])
	require.Equal(t, 0, gotIDs[0].PeerIndex)
	require.Equal(t, 1, gotIDs[1].PeerIndex)
}

func TestPoolSpawnLogsBuildErrorWithoutPanicking(t *testing.T) {
	reg := channel.NewRegistry()
	b := dataflow.NewBuilder(dataflow.Conf{BatchSize: 4, BatchCapacity: 4, Peers: 1}, 0, reg)
	bus := event.NewBus(1, 16)
	pool := NewPool(nil)

	pool.Spawn(context.Background(), Id{PeersTotal: 1, ServersTotal: 1}, bus, b.Operators(),
		func(ctx context.Context, id Id, sched *scheduler.Scheduler) error {
			return errors.New("boom")
		},
	)

	require.NotPanics(t, func() { pool.Wait() })
}

func TestPoolWaitPropagatesGenuinePanic(t *testing.T) {
	reg := channel.NewRegistry()
	b := dataflow.NewBuilder(dataflow.Conf{BatchSize: 4, BatchCapacity: 4, Peers: 1}, 0, reg)
	bus := event.NewBus(1, 16)
	pool := NewPool(nil)

	pool.Spawn(context.Background(), Id{PeersTotal: 1, ServersTotal: 1}, bus, b.Operators(),
		func(ctx context.Context, id Id, sched *scheduler.Scheduler) error {
			panic("unrecovered defect")
		},
	)

	require.Panics(t, func() { pool.Wait() })
}
