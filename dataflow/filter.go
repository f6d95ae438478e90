package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

type filterCore[T any] struct {
	info operator.Info
	in   *operator.InputHandle[T]
	out  *operator.OutputHandle[T]
	p    func(T) bool

	stashed    *databatch.MicroBatch[T]
	stashedPos int
}

func (f *filterCore[T]) Info() operator.Info { return f.info }

func (f *filterCore[T]) OnReceive() operator.Signal {
	for {
		batch, pos := f.stashed, f.stashedPos
		if batch == nil {
			b, err := f.in.TryNext()
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
			sess := f.out.Session(batch.Tag)
			for pos < len(items) {
				if f.p(items[pos]) {
					res, err := sess.Give(items[pos])
					if err != nil {
						return operator.FailedSignal(err)
					}
					if res == channel.WouldBlock {
						f.stashed, f.stashedPos = batch, pos
						return operator.BlockedSignal()
					}
				}
				pos++
			}
			if _, err := sess.Flush(); err != nil {
				return operator.FailedSignal(err)
			}
		}
		f.stashed, f.stashedPos = nil, 0
		batch.Release()
	}

	for _, closed := range f.in.DrainClosed() {
		if _, err := f.out.NotifyEnd(closed, databatch.EndOfScope{Tag: closed, SourceWeight: databatch.AllWeight()}); err != nil {
			return operator.FailedSignal(err)
		}
	}
	return operator.DoneSignal()
}

func (f *filterCore[T]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (f *filterCore[T]) OnCancel(t tag.Tag) {
	f.out.Cancel(t)
	f.in.Cancel(t)
}

// Filter appends an operator keeping only items for which p returns
// true (spec.md §4.5).
func Filter[T any](s *Stream[T], name string, p func(T) bool) *Stream[T] {
	b := s.b
	pipe := channel.NewPipeline[T](channel.Info{ID: b.nextChannelID(), ScopeLevel: s.scopeLevel}, b.conf.BatchCapacity)
	s.out.AddTee(pipe)

	pool := databatch.NewBufferPool[T](b.conf.BatchSize)
	out := operator.NewOutputHandle[T](0, pool)
	in := operator.NewInputHandle[T](0, pipe, s.scopeLevel, 1)

	core := &filterCore[T]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: out, p: p}
	b.register(core)
	return &Stream[T]{b: b, out: out, scopeLevel: s.scopeLevel}
}
