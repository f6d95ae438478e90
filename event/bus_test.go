package event

import (
	"testing"

	"github.com/graphscope/pegasus-go/tag"
	"github.com/stretchr/testify/require"
)

func TestPublishDrainDispatches(t *testing.T) {
	bus := NewBus(4, 16)

	var received []Event
	bus.Subscribe(1, func(e Event) { received = append(received, e) })

	require.NoError(t, bus.Publish(Event{Kind: Pushed, ChannelID: 1, Target: 1, Tag: tag.Root, Count: 3}))
	require.NoError(t, bus.Publish(Event{Kind: Pulled, ChannelID: 1, Target: 1, Tag: tag.Root, Count: 1}))

	n := bus.Drain()
	require.Equal(t, 2, n)
	require.Len(t, received, 2)
	require.Equal(t, Pushed, received[0].Kind)
}

func TestDrainIsNonBlockingWhenEmpty(t *testing.T) {
	bus := NewBus(2, 4)
	require.Equal(t, 0, bus.Drain())
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := NewBus(1, 4)
	require.NoError(t, bus.Close())
	err := bus.Publish(Event{ChannelID: 1})
	require.Error(t, err)
}

func TestUnsubscribedTargetIsDropped(t *testing.T) {
	bus := NewBus(1, 4)
	require.NoError(t, bus.Publish(Event{ChannelID: 1, Target: 99}))
	require.NotPanics(t, func() { bus.Drain() })
}

func TestStatsCounters(t *testing.T) {
	bus := NewBus(2, 4)
	bus.Subscribe(0, func(Event) {})
	require.NoError(t, bus.Publish(Event{ChannelID: 5, Target: 0}))
	bus.Drain()

	stats := bus.Stats()
	require.Equal(t, int64(1), stats.Published)
	require.Equal(t, int64(1), stats.Processed)
	require.Equal(t, 2, stats.PartitionCount)
}
