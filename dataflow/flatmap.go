package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

type flatMapCore[I, O any] struct {
	info operator.Info
	in   *operator.InputHandle[I]
	out  *operator.OutputHandle[O]
	f    func(I) ([]O, error)

	stashed     *databatch.MicroBatch[I]
	stashedPos  int
	pendingOut  []O
	pendingTag  tag.Tag
	pendingHead int
}

func (fm *flatMapCore[I, O]) Info() operator.Info { return fm.info }

// OnReceive respects would-block mid-expansion by keeping the expanded
// item slice (pendingOut) and a head cursor, rather than re-calling f —
// spec.md §4.5 calls flat_map's expansion "a lazy iterator"; this repo
// realizes it as an eagerly-expanded slice replayed from a cursor, which
// has the same resumability property without needing a suspendable
// generator.
func (fm *flatMapCore[I, O]) OnReceive() operator.Signal {
	for {
		if len(fm.pendingOut) > 0 {
			sess := fm.out.Session(fm.pendingTag)
			for fm.pendingHead < len(fm.pendingOut) {
				res, err := sess.Give(fm.pendingOut[fm.pendingHead])
				if err != nil {
					return operator.FailedSignal(err)
				}
				if res == channel.WouldBlock {
					return operator.BlockedSignal()
				}
				fm.pendingHead++
			}
			if _, err := sess.Flush(); err != nil {
				return operator.FailedSignal(err)
			}
			fm.pendingOut, fm.pendingHead = nil, 0
		}

		batch, pos := fm.stashed, fm.stashedPos
		if batch == nil {
			b, err := fm.in.TryNext()
			if err != nil {
				return operator.FailedSignal(err)
			}
			if b == nil {
				break
			}
			batch, pos = b, 0
		}

		if batch.Len() > 0 {
			items := batch.Data.Iter()
			for pos < len(items) {
				expanded, err := fm.f(items[pos])
				if err != nil {
					return operator.FailedSignal(err)
				}
				pos++
				if len(expanded) > 0 {
					fm.stashed, fm.stashedPos = batch, pos
					fm.pendingOut, fm.pendingTag, fm.pendingHead = expanded, batch.Tag, 0
					break
				}
			}
		}
		if pos >= batch.Len() {
			fm.stashed, fm.stashedPos = nil, 0
			batch.Release()
		}
	}

	for _, closed := range fm.in.DrainClosed() {
		if _, err := fm.out.NotifyEnd(closed, databatch.EndOfScope{Tag: closed, SourceWeight: databatch.AllWeight()}); err != nil {
			return operator.FailedSignal(err)
		}
	}
	return operator.DoneSignal()
}

func (fm *flatMapCore[I, O]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (fm *flatMapCore[I, O]) OnCancel(t tag.Tag) {
	fm.out.Cancel(t)
	fm.in.Cancel(t)
}

// FlatMap appends an operator expanding each item into zero or more
// output items (spec.md §4.5).
func FlatMap[I, O any](s *Stream[I], name string, f func(I) ([]O, error)) *Stream[O] {
	b := s.b
	pipe := channel.NewPipeline[I](channel.Info{ID: b.nextChannelID(), ScopeLevel: s.scopeLevel}, b.conf.BatchCapacity)
	s.out.AddTee(pipe)

	pool := databatch.NewBufferPool[O](b.conf.BatchSize)
	out := operator.NewOutputHandle[O](0, pool)
	in := operator.NewInputHandle[I](0, pipe, s.scopeLevel, 1)

	core := &flatMapCore[I, O]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: out, f: f}
	b.register(core)
	return &Stream[O]{b: b, out: out, scopeLevel: s.scopeLevel}
}
