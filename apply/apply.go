// Package apply implements the correlated-subtask combinator (spec.md
// §4.7): apply(sub) runs sub once per input item in its own nested
// scope and joins each subtask's result back onto the item that opened
// it, preserving input identity.
package apply

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

// Pair is one apply result: the input that opened the subtask scope and
// the value the subtask produced for it.
type Pair[I, O any] struct {
	In  I
	Out O
}

// applyState is shared by an EnterScope/LeaveScope pair and, when
// bounded, an admission operator ahead of EnterScope. All three run on
// the same worker goroutine under the cooperative scheduler, so no
// locking is needed despite the shared maps.
type applyState[I any] struct {
	pending       map[tag.Tag]I
	nextCounter   map[tag.Tag]uint32
	childrenTotal map[tag.Tag]uint32
	childrenSeen  map[tag.Tag]uint32
	notified      map[tag.Tag]bool
	openCount     int
}

func newApplyState[I any]() *applyState[I] {
	return &applyState[I]{
		pending:       make(map[tag.Tag]I),
		nextCounter:   make(map[tag.Tag]uint32),
		childrenTotal: make(map[tag.Tag]uint32),
		childrenSeen:  make(map[tag.Tag]uint32),
		notified:      make(map[tag.Tag]bool),
	}
}

// enterScopeCore extends the parent tag with a counter unique to the
// item within its parent scope, one counter per item, and hands the
// item to the subtask's input at that child tag. Each child scope holds
// exactly one item, so it is closed the instant that item is given.
type enterScopeCore[I any] struct {
	info  operator.Info
	in    *operator.InputHandle[I]
	out   *operator.OutputHandle[I]
	state *applyState[I]

	stashed      *databatch.MicroBatch[I]
	stashedPos   int
	stashedK     uint32
	haveStashedK bool
}

func (e *enterScopeCore[I]) Info() operator.Info { return e.info }

func (e *enterScopeCore[I]) OnReceive() operator.Signal {
	for {
		batch, pos := e.stashed, e.stashedPos
		if batch == nil {
			b, err := e.in.TryNext()
			if err != nil {
				return operator.FailedSignal(err)
			}
			if b == nil {
				break
			}
			batch, pos = b, 0
		}
		pt := batch.Tag

		if batch.Len() > 0 {
			items := batch.Data.Iter()
			for pos < len(items) {
				var k uint32
				if e.haveStashedK {
					k = e.stashedK
					e.haveStashedK = false
				} else {
					k = e.state.nextCounter[pt]
				}
				ct := pt.Child(k)
				sess := e.out.Session(ct)
				if _, err := sess.Give(items[pos]); err != nil {
					return operator.FailedSignal(err)
				}
				res, err := sess.Flush()
				if err != nil {
					return operator.FailedSignal(err)
				}
				if res == channel.WouldBlock {
					e.stashed, e.stashedPos = batch, pos
					e.stashedK, e.haveStashedK = k, true
					return operator.BlockedSignal()
				}
				e.state.pending[ct] = items[pos]
				e.state.nextCounter[pt] = k + 1
				if _, err := e.out.NotifyEnd(ct, databatch.EndOfScope{
					Tag: ct, SourceWeight: databatch.AllWeight(), TotalSend: 1,
				}); err != nil {
					return operator.FailedSignal(err)
				}
				pos++
			}
		}
		e.stashed, e.stashedPos = nil, 0
		batch.Release()
	}

	for _, closed := range e.in.DrainClosed() {
		e.state.childrenTotal[closed] = e.state.nextCounter[closed]
	}
	return operator.DoneSignal()
}

func (e *enterScopeCore[I]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (e *enterScopeCore[I]) OnCancel(t tag.Tag) {
	e.out.Cancel(t)
	e.in.Cancel(t)
}

// leaveScopeCore joins each subtask output back with the input that
// opened its scope, restores the parent tag, and emits the pair. Once
// every child scope opened for a parent tag has both delivered its
// result and closed, and EnterScope has reported the parent's own total
// child count, it emits the parent's EndOfScope downstream.
type leaveScopeCore[I, O any] struct {
	info  operator.Info
	in    *operator.InputHandle[O]
	out   *operator.OutputHandle[Pair[I, O]]
	state *applyState[I]
}

func (l *leaveScopeCore[I, O]) Info() operator.Info { return l.info }

func (l *leaveScopeCore[I, O]) OnReceive() operator.Signal {
	for {
		b, err := l.in.TryNext()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if b == nil {
			break
		}
		ct := b.Tag
		if b.Len() > 0 {
			orig, ok := l.state.pending[ct]
			if ok {
				pt := ct.Parent()
				sess := l.out.Session(pt)
				for _, item := range b.Data.Iter() {
					if _, err := sess.Give(Pair[I, O]{In: orig, Out: item}); err != nil {
						return operator.FailedSignal(err)
					}
				}
				if _, err := sess.Flush(); err != nil {
					return operator.FailedSignal(err)
				}
			}
		}
		b.Release()
	}

	for _, closed := range l.in.DrainClosed() {
		pt := closed.Parent()
		delete(l.state.pending, closed)
		l.state.childrenSeen[pt]++
		l.state.openCount--
	}

	for pt, total := range l.state.childrenTotal {
		if l.state.notified[pt] {
			continue
		}
		if l.state.childrenSeen[pt] < total {
			continue
		}
		if _, err := l.out.NotifyEnd(pt, databatch.EndOfScope{
			Tag: pt, SourceWeight: databatch.AllWeight(), TotalSend: uint64(total),
		}); err != nil {
			return operator.FailedSignal(err)
		}
		l.state.notified[pt] = true
	}
	return operator.DoneSignal()
}

func (l *leaveScopeCore[I, O]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (l *leaveScopeCore[I, O]) OnCancel(t tag.Tag) {
	l.out.Cancel(t)
	l.in.Cancel(t)
}

// Apply runs sub once per input item in a scope one level deeper than
// s, then joins each result back onto the item that produced it
// (spec.md §4.7's apply(sub)). One Pair is emitted per item sub
// outputs, so a sub that ends in Count or Fold yields exactly one Pair
// per input; a sub that emits nothing for an input yields none.
func Apply[I, O any](s *dataflow.Stream[I], name string, sub func(*dataflow.Stream[I]) *dataflow.Stream[O]) *dataflow.Stream[Pair[I, O]] {
	return applyWithState(s, name, newApplyState[I](), sub)
}
