package channel

import (
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// PushResult reports what happened to a pushed batch.
type PushResult int

const (
	// Pushed means the batch was accepted.
	Pushed PushResult = iota
	// WouldBlock means the downstream buffer or transport is saturated;
	// per spec.md §4.3's flow-control contract the caller must stash the
	// unfinished iterator and retry on a later scheduler tick.
	WouldBlock
)

func (r PushResult) String() string {
	if r == WouldBlock {
		return "would_block"
	}
	return "pushed"
}

// Push is the producer-facing endpoint of a channel for one source
// worker. Implementations are not safe for concurrent use by more than
// one goroutine — per spec.md §3's Ownership section, each push
// transfers exclusive ownership of the batch to the channel.
type Push[T any] interface {
	Push(batch *databatch.MicroBatch[T]) (PushResult, error)

	// Cancel flags t and its descendants as cancelled: any batches
	// already buffered for those scopes are discarded rather than
	// delivered.
	Cancel(t tag.Tag)
}

// Pull is the consumer-facing endpoint of a channel for one target
// worker.
type Pull[T any] interface {
	// TryPull returns the next ready batch, or nil if none is ready yet.
	TryPull() (*databatch.MicroBatch[T], error)
}

// Info reports the shape of the channel that produced this endpoint.
// The four channel kinds (Pipeline, Exchange, Broadcast, Aggregate)
// expose it; the Counted wrappers and the per-target pull endpoints do
// not. It is declared separately so mocks in tests need not implement it.
type Described interface {
	Info() Info
}
