package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

type mapCore[I, O any] struct {
	info operator.Info
	in   *operator.InputHandle[I]
	out  *operator.OutputHandle[O]
	f    func(I) (O, error)

	stashed    *databatch.MicroBatch[I]
	stashedPos int
}

func (m *mapCore[I, O]) Info() operator.Info { return m.info }

func (m *mapCore[I, O]) OnReceive() operator.Signal {
	for {
		batch, pos := m.stashed, m.stashedPos
		if batch == nil {
			b, err := m.in.TryNext()
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
			sess := m.out.Session(batch.Tag)
			for pos < len(items) {
				o, err := m.f(items[pos])
				if err != nil {
					return operator.FailedSignal(err)
				}
				res, err := sess.Give(o)
				if err != nil {
					return operator.FailedSignal(err)
				}
				if res == channel.WouldBlock {
					m.stashed, m.stashedPos = batch, pos
					return operator.BlockedSignal()
				}
				pos++
			}
			if _, err := sess.Flush(); err != nil {
				return operator.FailedSignal(err)
			}
		}
		m.stashed, m.stashedPos = nil, 0
		batch.Release()
	}

	for _, closed := range m.in.DrainClosed() {
		if _, err := m.out.NotifyEnd(closed, databatch.EndOfScope{Tag: closed, SourceWeight: databatch.AllWeight()}); err != nil {
			return operator.FailedSignal(err)
		}
	}
	return operator.DoneSignal()
}

func (m *mapCore[I, O]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (m *mapCore[I, O]) OnCancel(t tag.Tag) {
	m.out.Cancel(t)
	m.in.Cancel(t)
}

// Map appends a 1:1 transform operator: O = f(I). A non-nil error from f
// bubbles up as a job error (spec.md §4.5).
func Map[I, O any](s *Stream[I], name string, f func(I) (O, error)) *Stream[O] {
	b := s.b
	pipe := channel.NewPipeline[I](channel.Info{ID: b.nextChannelID(), ScopeLevel: s.scopeLevel}, b.conf.BatchCapacity)
	s.out.AddTee(pipe)

	pool := databatch.NewBufferPool[O](b.conf.BatchSize)
	out := operator.NewOutputHandle[O](0, pool)
	in := operator.NewInputHandle[I](0, pipe, s.scopeLevel, 1)

	core := &mapCore[I, O]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: out, f: f}
	b.register(core)
	return &Stream[O]{b: b, out: out, scopeLevel: s.scopeLevel}
}
