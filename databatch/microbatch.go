package databatch

import "github.com/graphscope/pegasus-go/tag"

// WorkerIndex identifies the worker that produced a batch on a channel,
// used by the receiver to de-duplicate end-of-scope signals per
// spec.md §3.
type WorkerIndex int

// MicroBatch is the unit of dataflow: a tagged, sequenced, refcounted
// batch of items, optionally carrying the end-of-scope marker for its
// (channel, scope, source worker).
//
// Invariant (spec.md §3): once End is set on a batch from a given
// SourceWorker for a given Tag, no further MicroBatch with the same
// (channel, SourceWorker, Tag) is ever emitted. The channel layer, not
// MicroBatch itself, is responsible for upholding this — MicroBatch only
// carries the fact.
type MicroBatch[T any] struct {
	Tag          tag.Tag
	SourceWorker WorkerIndex
	Seq          uint64
	End          *EndOfScope
	Data         *ReadBuffer[T]

	// Discarded lets the runtime drop cancelled data without
	// propagating it further: a channel marks batches it would
	// otherwise deliver as Discarded once the scope is cancelled, so
	// downstream code can skip processing without needing to re-check
	// the cancel state itself.
	Discarded bool
}

// Len returns the number of data items in the batch (0 for an
// end-of-scope-only batch).
func (b *MicroBatch[T]) Len() int {
	if b == nil {
		return 0
	}
	return b.Data.Len()
}

// IsEnd reports whether this batch carries the end-of-scope marker.
func (b *MicroBatch[T]) IsEnd() bool {
	return b != nil && b.End != nil
}

// Share returns a MicroBatch sharing the same underlying ReadBuffer —
// used by Tee to fan one batch out to several downstream channels
// without copying data (spec.md §4.4).
func (b *MicroBatch[T]) Share() *MicroBatch[T] {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Data = b.Data.Share()
	return &clone
}

// Release drops this share of the batch's backing buffer. Every Share
// (including the original allocation) must be balanced by one Release.
func (b *MicroBatch[T]) Release() {
	if b == nil {
		return
	}
	b.Data.Release()
}
