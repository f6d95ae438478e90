package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
)

// Repartition inserts an Exchange channel keyed by key, fanning items
// across the job's peers by hash (spec.md §4.5). The channel instance is
// shared across every worker's build pass via the job's registry.
func Repartition[T any](s *Stream[T], name string, key channel.KeyFunc[T]) *Stream[T] {
	b := s.b
	id := b.nextChannelID()
	info := channel.Info{ID: id, ScopeLevel: s.scopeLevel, SourcePeers: b.conf.Peers, TargetPeers: b.conf.Peers}
	pool := databatch.NewBufferPool[T](b.conf.BatchSize)
	ex := channel.GetOrCreate(b.registry, id, func() *channel.Exchange[T] {
		return channel.NewExchange[T](info, pool, key, b.conf.BatchSize)
	})
	s.out.AddTee(ex)

	outPool := databatch.NewBufferPool[T](b.conf.BatchSize)
	out := operator.NewOutputHandle[T](0, outPool)
	in := operator.NewInputHandle[T](0, ex.PullEndpoint(b.worker), s.scopeLevel, b.conf.Peers)

	core := &passthroughCore[T]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: out}
	b.register(core)
	return &Stream[T]{b: b, out: out, scopeLevel: s.scopeLevel}
}

// Broadcast clones every batch to all peers (spec.md §4.3's Broadcast
// kind, exposed at the Stream API level for fan-out combinators).
func Broadcast[T any](s *Stream[T], name string) *Stream[T] {
	b := s.b
	id := b.nextChannelID()
	info := channel.Info{ID: id, ScopeLevel: s.scopeLevel, SourcePeers: b.conf.Peers, TargetPeers: b.conf.Peers}
	bc := channel.GetOrCreate(b.registry, id, func() *channel.Broadcast[T] {
		return channel.NewBroadcast[T](info, b.conf.BatchCapacity)
	})
	s.out.AddTee(bc)

	outPool := databatch.NewBufferPool[T](b.conf.BatchSize)
	out := operator.NewOutputHandle[T](0, outPool)
	in := operator.NewInputHandle[T](0, bc.PullEndpoint(b.worker), s.scopeLevel, b.conf.Peers)

	core := &passthroughCore[T]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: out}
	b.register(core)
	return &Stream[T]{b: b, out: out, scopeLevel: s.scopeLevel}
}

// Aggregate inserts an Aggregate(target=0) channel (spec.md §4.5): every
// peer's data converges onto worker 0. Workers other than the target
// have nothing more to build downstream of this point, so they get a
// nil Stream — callers building a plan with Aggregate must branch on
// b.Worker() == 0 before continuing the chain, mirroring how the
// original's single-sink reduction only materializes on one worker.
func Aggregate[T any](s *Stream[T], name string) *Stream[T] {
	b := s.b
	id := b.nextChannelID()
	info := channel.Info{ID: id, ScopeLevel: s.scopeLevel, SourcePeers: b.conf.Peers, TargetPeers: 1, AggregateTarget: 0}
	agg := channel.GetOrCreate(b.registry, id, func() *channel.Aggregate[T] {
		return channel.NewAggregate[T](info, b.conf.BatchCapacity)
	})
	s.out.AddTee(agg)

	if b.worker != 0 {
		return nil
	}

	outPool := databatch.NewBufferPool[T](b.conf.BatchSize)
	out := operator.NewOutputHandle[T](0, outPool)
	in := operator.NewInputHandle[T](0, agg, s.scopeLevel, b.conf.Peers)

	core := &passthroughCore[T]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: out}
	b.register(core)
	return &Stream[T]{b: b, out: out, scopeLevel: s.scopeLevel}
}

// Copied fans s out to n independent downstream streams via a tee on its
// output (spec.md §4.5: "When an output is consumed twice, its
// OutputBuilder multiplexes a tee").
func Copied[T any](s *Stream[T], name string, n int) []*Stream[T] {
	b := s.b
	out := make([]*Stream[T], n)
	for i := 0; i < n; i++ {
		pipe := channel.NewPipeline[T](channel.Info{ID: b.nextChannelID(), ScopeLevel: s.scopeLevel}, b.conf.BatchCapacity)
		s.out.AddTee(pipe)

		pool := databatch.NewBufferPool[T](b.conf.BatchSize)
		oh := operator.NewOutputHandle[T](0, pool)
		in := operator.NewInputHandle[T](0, pipe, s.scopeLevel, 1)

		core := &passthroughCore[T]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, out: oh}
		b.register(core)
		out[i] = &Stream[T]{b: b, out: oh, scopeLevel: s.scopeLevel}
	}
	return out
}
