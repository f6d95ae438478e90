package operator

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// cancellable is satisfied by every concrete channel type (Pipeline,
// Exchange, Broadcast, Aggregate): they all expose Cancel alongside
// Pull, so an InputHandle can propagate OnCancel upstream without the
// generic Pull[T] interface itself needing a Cancel method (a Pull
// endpoint bound to one exchange target, for instance, has no Cancel of
// its own — cancelling applies to the whole channel).
type cancellable interface {
	Cancel(tag.Tag)
}

// InputHandle is the operator-facing side of one input port (spec.md
// §4.4). It tracks, per scope, how many items have arrived and what
// EndOfScope observations have been merged, using the scope-level
// specialized TidyTagMap (spec.md §4.1) since every tag it sees has
// exactly this operator's ScopeLevel.
type InputHandle[T any] struct {
	port       int
	pull       channel.Pull[T]
	cancel     cancellable
	peersTotal int

	received    *tag.TidyTagMap[uint64]
	ends        *tag.TidyTagMap[databatch.EndOfScope]
	closed      *tag.TidyTagMap[bool]
	newlyClosed []tag.Tag
}

// NewInputHandle wraps pull as input port. peersTotal is the number of
// distinct source workers this input expects EndOfScope observations
// from before a scope can close.
func NewInputHandle[T any](port int, pull channel.Pull[T], scopeLevel, peersTotal int) *InputHandle[T] {
	ih := &InputHandle[T]{
		port:       port,
		pull:       pull,
		peersTotal: peersTotal,
		received:   tag.NewTidyTagMap[uint64](scopeLevel),
		ends:       tag.NewTidyTagMap[databatch.EndOfScope](scopeLevel),
		closed:     tag.NewTidyTagMap[bool](scopeLevel),
	}
	if c, ok := pull.(cancellable); ok {
		ih.cancel = c
	}
	return ih
}

// TryNext returns the next ready batch on this input, or nil if none is
// currently available. It performs the bookkeeping spec.md §4.4
// describes: counting received items per scope and merging EndOfScope
// observations so DrainClosed can report newly-closed scopes.
func (ih *InputHandle[T]) TryNext() (*databatch.MicroBatch[T], error) {
	b, err := ih.pull.TryPull()
	if err != nil || b == nil {
		return b, err
	}
	if n := b.Len(); n > 0 {
		cur, _ := ih.received.Get(b.Tag)
		ih.received.Set(b.Tag, cur+uint64(n))
	}
	if b.IsEnd() {
		merged := *b.End
		if prev, ok := ih.ends.Get(b.Tag); ok {
			merged = prev.Merge(merged)
		}
		ih.ends.Set(b.Tag, merged)

		received, _ := ih.received.Get(b.Tag)
		if merged.Closed(ih.peersTotal, received) {
			if already, _ := ih.closed.Get(b.Tag); !already {
				ih.closed.Set(b.Tag, true)
				ih.newlyClosed = append(ih.newlyClosed, b.Tag)
			}
		}
	}
	return b, nil
}

// DrainClosed returns the scopes that closed since the last call (all
// expected producers' EndOfScope observations converged per spec.md
// §3), clearing the pending list. The caller (an operator's OnReceive)
// fires OnNotify for each.
func (ih *InputHandle[T]) DrainClosed() []tag.Tag {
	out := ih.newlyClosed
	ih.newlyClosed = nil
	return out
}

// Cancel propagates a downstream cancel to this input's upstream
// channel, per spec.md §4.3's cancellation contract.
func (ih *InputHandle[T]) Cancel(t tag.Tag) {
	if ih.cancel != nil {
		ih.cancel.Cancel(t)
	}
}
