package channel

import (
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/event"
	"github.com/graphscope/pegasus-go/tag"
)

// CountedPush wraps a Push endpoint so every accepted push also emits a
// Pushed event on the worker's event bus (spec.md §4.3), driving the
// flow-control bookkeeping the scheduler performs during Drain.
type CountedPush[T any] struct {
	inner  Push[T]
	bus    *event.Bus
	chanID int
	target int
}

// NewCountedPush wraps inner. target is the operator index the Pushed
// event should be attributed to (the consuming side of the channel).
func NewCountedPush[T any](inner Push[T], bus *event.Bus, chanID, target int) *CountedPush[T] {
	return &CountedPush[T]{inner: inner, bus: bus, chanID: chanID, target: target}
}

func (c *CountedPush[T]) Push(batch *databatch.MicroBatch[T]) (PushResult, error) {
	n := batch.Len()
	t := batch.Tag
	res, err := c.inner.Push(batch)
	if err != nil || res != Pushed {
		return res, err
	}
	_ = c.bus.Publish(event.Event{
		Kind:      event.Pushed,
		ChannelID: c.chanID,
		Target:    c.target,
		Tag:       t,
		Count:     uint64(n),
	})
	return res, nil
}

func (c *CountedPush[T]) Cancel(t tag.Tag) { c.inner.Cancel(t) }

// CountedPull wraps a Pull endpoint so every successful pull emits a
// Pulled event.
type CountedPull[T any] struct {
	inner  Pull[T]
	bus    *event.Bus
	chanID int
	source int
}

// NewCountedPull wraps inner. source is the operator index the Pulled
// event should be attributed to (the producing side of the channel).
func NewCountedPull[T any](inner Pull[T], bus *event.Bus, chanID, source int) *CountedPull[T] {
	return &CountedPull[T]{inner: inner, bus: bus, chanID: chanID, source: source}
}

func (c *CountedPull[T]) TryPull() (*databatch.MicroBatch[T], error) {
	batch, err := c.inner.TryPull()
	if err != nil || batch == nil {
		return batch, err
	}
	_ = c.bus.Publish(event.Event{
		Kind:      event.Pulled,
		ChannelID: c.chanID,
		Target:    c.source,
		Tag:       batch.Tag,
		Count:     uint64(batch.Len()),
	})
	return batch, nil
}
