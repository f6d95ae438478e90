package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

// countCore accumulates, per scope, the number of items seen and emits
// one uint64 when the scope closes (spec.md §4.5: "count/fold ... emits
// one value per scope").
type countCore[T any] struct {
	info   operator.Info
	in     *operator.InputHandle[T]
	out    *operator.OutputHandle[uint64]
	counts map[tag.Tag]uint64
}

func (c *countCore[T]) Info() operator.Info { return c.info }

func (c *countCore[T]) OnReceive() operator.Signal {
	for {
		b, err := c.in.TryNext()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if b == nil {
			break
		}
		if n := b.Len(); n > 0 {
			c.counts[b.Tag] += uint64(n)
		}
		b.Release()
	}
	for _, closed := range c.in.DrainClosed() {
		sess := c.out.Session(closed)
		if _, err := sess.Give(c.counts[closed]); err != nil {
			return operator.FailedSignal(err)
		}
		if _, err := sess.Flush(); err != nil {
			return operator.FailedSignal(err)
		}
		delete(c.counts, closed)
		if _, err := c.out.NotifyEnd(closed, databatch.EndOfScope{Tag: closed, SourceWeight: databatch.AllWeight(), TotalSend: 1}); err != nil {
			return operator.FailedSignal(err)
		}
	}
	return operator.DoneSignal()
}

func (c *countCore[T]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (c *countCore[T]) OnCancel(t tag.Tag) {
	c.out.Cancel(t)
	c.in.Cancel(t)
}

// Count appends an operator emitting the item count of each scope once
// it closes.
func Count[T any](s *Stream[T], name string) *Stream[uint64] {
	b := s.b
	pipe := channel.NewPipeline[T](channel.Info{ID: b.nextChannelID(), ScopeLevel: s.scopeLevel}, b.conf.BatchCapacity)
	s.out.AddTee(pipe)

	pool := databatch.NewBufferPool[uint64](b.conf.BatchSize)
	out := operator.NewOutputHandle[uint64](0, pool)
	in := operator.NewInputHandle[T](0, pipe, s.scopeLevel, 1)

	core := &countCore[T]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: out, counts: make(map[tag.Tag]uint64)}
	b.register(core)
	return &Stream[uint64]{b: b, out: out, scopeLevel: s.scopeLevel}
}

// foldCore folds every item of a scope into one accumulator, emitted
// when the scope closes.
type foldCore[T, A any] struct {
	info    operator.Info
	in      *operator.InputHandle[T]
	out     *operator.OutputHandle[A]
	init    func() A
	combine func(A, T) A
	acc     map[tag.Tag]A
	seen    map[tag.Tag]bool
}

func (fc *foldCore[T, A]) Info() operator.Info { return fc.info }

func (fc *foldCore[T, A]) OnReceive() operator.Signal {
	for {
		b, err := fc.in.TryNext()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if b == nil {
			break
		}
		if b.Len() > 0 {
			if !fc.seen[b.Tag] {
				fc.acc[b.Tag] = fc.init()
				fc.seen[b.Tag] = true
			}
			acc := fc.acc[b.Tag]
			b.Data.Drain(func(item T) { acc = fc.combine(acc, item) })
			fc.acc[b.Tag] = acc
		}
		b.Release()
	}
	for _, closed := range fc.in.DrainClosed() {
		if !fc.seen[closed] {
			fc.acc[closed] = fc.init()
		}
		sess := fc.out.Session(closed)
		if _, err := sess.Give(fc.acc[closed]); err != nil {
			return operator.FailedSignal(err)
		}
		if _, err := sess.Flush(); err != nil {
			return operator.FailedSignal(err)
		}
		delete(fc.acc, closed)
		delete(fc.seen, closed)
		if _, err := fc.out.NotifyEnd(closed, databatch.EndOfScope{Tag: closed, SourceWeight: databatch.AllWeight(), TotalSend: 1}); err != nil {
			return operator.FailedSignal(err)
		}
	}
	return operator.DoneSignal()
}

func (fc *foldCore[T, A]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (fc *foldCore[T, A]) OnCancel(t tag.Tag) {
	fc.out.Cancel(t)
	fc.in.Cancel(t)
}

// Fold appends an operator reducing each scope's items into one
// accumulator value A, starting from init() and combining with combine.
func Fold[T, A any](s *Stream[T], name string, init func() A, combine func(A, T) A) *Stream[A] {
	b := s.b
	pipe := channel.NewPipeline[T](channel.Info{ID: b.nextChannelID(), ScopeLevel: s.scopeLevel}, b.conf.BatchCapacity)
	s.out.AddTee(pipe)

	pool := databatch.NewBufferPool[A](b.conf.BatchSize)
	out := operator.NewOutputHandle[A](0, pool)
	in := operator.NewInputHandle[T](0, pipe, s.scopeLevel, 1)

	core := &foldCore[T, A]{
		info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel},
		in:   in, out: out, init: init, combine: combine,
		acc: make(map[tag.Tag]A), seen: make(map[tag.Tag]bool),
	}
	b.register(core)
	return &Stream[A]{b: b, out: out, scopeLevel: s.scopeLevel}
}
