package operator

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// OutputHandle is the operator-facing side of one output port. When
// more than one downstream channel consumes it, it behaves as the Tee
// spec.md §4.4 describes: each push clones (Shares) the finalized
// buffer instead of copying it.
type OutputHandle[T any] struct {
	port int
	pool *databatch.BufferPool[T]
	tees []channel.Push[T]

	// skip and blocked are shared across every tee of this output: a
	// cancelled scope is dropped everywhere, and a scope counts as
	// blocked as soon as any one tee would-blocks on it. spec.md §4.4
	// lets each downstream track its own skip/blocked set independently;
	// this repo shares the bookkeeping across tees of one output
	// instead, trading a little pushback precision (one slow tee stalls
	// the whole session) for a much simpler Session implementation.
	skip    map[tag.Tag]bool
	blocked map[tag.Tag]bool
}

// NewOutputHandle creates an output port backed by pool for batch
// allocation and fanning to the given downstream pushes.
func NewOutputHandle[T any](port int, pool *databatch.BufferPool[T], tees ...channel.Push[T]) *OutputHandle[T] {
	return &OutputHandle[T]{
		port:    port,
		pool:    pool,
		tees:    tees,
		skip:    make(map[tag.Tag]bool),
		blocked: make(map[tag.Tag]bool),
	}
}

// AddTee adds another downstream channel this output fans to.
func (o *OutputHandle[T]) AddTee(p channel.Push[T]) { o.tees = append(o.tees, p) }

// Session opens a push session scoped to t, backed by a fresh write
// buffer from this output's pool.
func (o *OutputHandle[T]) Session(t tag.Tag) *Session[T] {
	return &Session[T]{out: o, tag: t, wb: o.pool.Get()}
}

// Blocked reports whether t is currently stashed as would-block.
func (o *OutputHandle[T]) Blocked(t tag.Tag) bool { return o.blocked[t] }

// Cancel marks t as skipped: further pushes into it are silently
// dropped, and every tee is told to cancel it so producers upstream of
// this output's channels stop sending for that scope.
func (o *OutputHandle[T]) Cancel(t tag.Tag) {
	o.skip[t] = true
	delete(o.blocked, t)
	for _, tee := range o.tees {
		tee.Cancel(t)
	}
}

// NotifyEnd pushes an end-of-scope-only batch carrying end to every tee.
func (o *OutputHandle[T]) NotifyEnd(t tag.Tag, end databatch.EndOfScope) (channel.PushResult, error) {
	if o.skip[t] {
		return channel.Pushed, nil
	}
	result := channel.Pushed
	for _, tee := range o.tees {
		e := end
		res, err := tee.Push(&databatch.MicroBatch[T]{Tag: t, End: &e})
		if err != nil {
			return res, err
		}
		if res == channel.WouldBlock {
			result = channel.WouldBlock
		}
	}
	if result == channel.WouldBlock {
		o.blocked[t] = true
	} else {
		delete(o.blocked, t)
	}
	return result, nil
}
