// Package iteration implements the iterate/iterate_until combinators
// (spec.md §4.6) atop package dataflow's Stream API.
package iteration

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

// retagCore rewrites every batch's Tag through transform, forwarding
// data and EndOfScope markers unchanged otherwise. It assumes a single
// upstream producer (true of every use inside this package's unrolled
// loop bodies), so it reacts to a batch's own End marker directly rather
// than waiting on InputHandle's multi-source convergence tracking.
type retagCore[T any] struct {
	info      operator.Info
	in        *operator.InputHandle[T]
	out       *operator.OutputHandle[T]
	transform func(tag.Tag) tag.Tag
}

func (r *retagCore[T]) Info() operator.Info { return r.info }

func (r *retagCore[T]) OnReceive() operator.Signal {
	for {
		b, err := r.in.TryNext()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if b == nil {
			break
		}
		newTag := r.transform(b.Tag)

		if b.Len() > 0 {
			nb := &databatch.MicroBatch[T]{Tag: newTag, SourceWorker: b.SourceWorker, Seq: b.Seq, Data: b.Data}
			sess := r.out.Session(newTag)
			res, err := sess.GiveBatch(nb)
			if err != nil {
				return operator.FailedSignal(err)
			}
			if res == channel.WouldBlock {
				return operator.BlockedSignal()
			}
		} else {
			b.Release()
		}

		if b.IsEnd() {
			e := *b.End
			e.Tag = newTag
			if _, err := r.out.NotifyEnd(newTag, e); err != nil {
				return operator.FailedSignal(err)
			}
		}
	}
	return operator.DoneSignal()
}

func (r *retagCore[T]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (r *retagCore[T]) OnCancel(t tag.Tag) {
	r.out.Cancel(t)
	r.in.Cancel(t)
}

// retag appends a retagCore rewriting s's tags through transform,
// returning the resulting stream at the new scope depth. It is built the
// same way every dataflow combinator wires a new operator: tee a fresh
// Pipeline off s's output, read it through a new InputHandle, register
// a Core, hand back a Stream wrapping the new OutputHandle.
func retag[T any](s *dataflow.Stream[T], name string, newScopeLevel int, transform func(tag.Tag) tag.Tag) *dataflow.Stream[T] {
	b := s.Builder()
	conf := b.Conf()
	pipe := channel.NewPipeline[T](channel.Info{ID: b.NextChannelID(), ScopeLevel: s.ScopeLevel()}, conf.BatchCapacity)
	s.Output().AddTee(pipe)

	pool := databatch.NewBufferPool[T](conf.BatchSize)
	out := operator.NewOutputHandle[T](0, pool)
	in := operator.NewInputHandle[T](0, pipe, s.ScopeLevel(), 1)

	core := &retagCore[T]{info: operator.Info{Index: b.NextIndex(), Name: name, ScopeLevel: s.ScopeLevel()}, in: in, out: out, transform: transform}
	b.Register(core)
	return dataflow.NewStream(b, out, newScopeLevel)
}
