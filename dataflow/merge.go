package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

// mergeCore unions two inputs of the same type into one output
// (spec.md §4.5). Source order across the two inputs is not preserved —
// "no global order; operators must be commutative/associative over
// source order" (spec.md §5).
type mergeCore[T any] struct {
	info   operator.Info
	ins    [2]*operator.InputHandle[T]
	out    *operator.OutputHandle[T]
	closed map[tag.Tag]int
}

func (m *mergeCore[T]) Info() operator.Info { return m.info }

func (m *mergeCore[T]) OnReceive() operator.Signal {
	for side := 0; side < 2; side++ {
		for {
			b, err := m.ins[side].TryNext()
			if err != nil {
				return operator.FailedSignal(err)
			}
			if b == nil {
				break
			}
			if b.Len() > 0 {
				sess := m.out.Session(b.Tag)
				res, err := sess.GiveBatch(b)
				if err != nil {
					return operator.FailedSignal(err)
				}
				if res == channel.WouldBlock {
					return operator.BlockedSignal()
				}
			} else {
				b.Release()
			}
		}
	}

	for side := 0; side < 2; side++ {
		for _, closed := range m.ins[side].DrainClosed() {
			m.closed[closed]++
			if m.closed[closed] == 2 {
				if _, err := m.out.NotifyEnd(closed, databatch.EndOfScope{Tag: closed, SourceWeight: databatch.AllWeight()}); err != nil {
					return operator.FailedSignal(err)
				}
				delete(m.closed, closed)
			}
		}
	}
	return operator.DoneSignal()
}

func (m *mergeCore[T]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (m *mergeCore[T]) OnCancel(t tag.Tag) {
	m.out.Cancel(t)
	m.ins[0].Cancel(t)
	m.ins[1].Cancel(t)
}

// Merge appends an operator that unions two same-typed streams.
func Merge[T any](a, c *Stream[T], name string) *Stream[T] {
	b := a.b
	p1 := channel.NewPipeline[T](channel.Info{ID: b.nextChannelID(), ScopeLevel: a.scopeLevel}, b.conf.BatchCapacity)
	p2 := channel.NewPipeline[T](channel.Info{ID: b.nextChannelID(), ScopeLevel: a.scopeLevel}, b.conf.BatchCapacity)
	a.out.AddTee(p1)
	c.out.AddTee(p2)

	pool := databatch.NewBufferPool[T](b.conf.BatchSize)
	out := operator.NewOutputHandle[T](0, pool)
	in1 := operator.NewInputHandle[T](0, p1, a.scopeLevel, 1)
	in2 := operator.NewInputHandle[T](1, p2, a.scopeLevel, 1)

	core := &mergeCore[T]{
		info:   operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: a.scopeLevel},
		ins:    [2]*operator.InputHandle[T]{in1, in2},
		out:    out,
		closed: make(map[tag.Tag]int),
	}
	b.register(core)
	return &Stream[T]{b: b, out: out, scopeLevel: a.scopeLevel}
}
