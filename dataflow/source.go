package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

// sourceCore feeds an in-memory slice into the dataflow at the root
// scope, emitting the root EndOfScope once every item has been given to
// its output session.
type sourceCore[T any] struct {
	info operator.Info
	out  *operator.OutputHandle[T]
	data []T
	idx  int
	done bool
}

func (s *sourceCore[T]) Info() operator.Info { return s.info }

func (s *sourceCore[T]) OnReceive() operator.Signal {
	if s.done {
		return operator.DoneSignal()
	}
	sess := s.out.Session(tag.Root)
	for s.idx < len(s.data) {
		res, err := sess.Give(s.data[s.idx])
		if err != nil {
			return operator.FailedSignal(err)
		}
		if res == channel.WouldBlock {
			return operator.BlockedSignal()
		}
		s.idx++
	}
	if _, err := sess.Flush(); err != nil {
		return operator.FailedSignal(err)
	}
	_, err := s.out.NotifyEnd(tag.Root, databatch.EndOfScope{
		Tag: tag.Root, SourceWeight: databatch.AllWeight(), TotalSend: uint64(len(s.data)),
	})
	if err != nil {
		return operator.FailedSignal(err)
	}
	s.done = true
	return operator.DoneSignal()
}

func (s *sourceCore[T]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (s *sourceCore[T]) OnCancel(tag.Tag)                 {}

// FromSlice shards data round-robin across the job's peers by worker
// index, so every worker contributes a disjoint part of the source
// (spec.md §4.9's worker-replicated build contract) without requiring a
// separate "which worker owns the source" convention.
func FromSlice[T any](b *Builder, name string, data []T) *Stream[T] {
	var shard []T
	for i := b.worker; i < len(data); i += b.conf.Peers {
		shard = append(shard, data[i])
	}
	pool := databatch.NewBufferPool[T](b.conf.BatchSize)
	out := operator.NewOutputHandle[T](0, pool)
	core := &sourceCore[T]{
		info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: 0, Peers: b.conf.Peers},
		out:  out,
		data: shard,
	}
	b.register(core)
	return &Stream[T]{b: b, out: out, scopeLevel: 0}
}
