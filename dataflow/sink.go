package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

// SinkFunc receives one scope's items as they arrive. It must not block.
type SinkFunc[T any] func(t tag.Tag, items []T)

type sinkCore[T any] struct {
	info    operator.Info
	in      *operator.InputHandle[T]
	onItems SinkFunc[T]
	onEnd   func(tag.Tag)
}

func (sk *sinkCore[T]) Info() operator.Info { return sk.info }

func (sk *sinkCore[T]) OnReceive() operator.Signal {
	for {
		b, err := sk.in.TryNext()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if b == nil {
			break
		}
		if b.Len() > 0 {
			sk.onItems(b.Tag, append([]T(nil), b.Data.Iter()...))
		}
		b.Release()
	}
	for _, closed := range sk.in.DrainClosed() {
		if sk.onEnd != nil {
			sk.onEnd(closed)
		}
	}
	return operator.DoneSignal()
}

func (sk *sinkCore[T]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (sk *sinkCore[T]) OnCancel(t tag.Tag)                { sk.in.Cancel(t) }

// SinkInto appends a terminal operator handing every scope's items to
// onItems as they arrive, and onEnd once the scope closes (spec.md
// §4.5's sink_into). It does not return a Stream — the plan ends here.
func SinkInto[T any](s *Stream[T], name string, onItems SinkFunc[T], onEnd func(tag.Tag)) {
	b := s.b
	pipe := channel.NewPipeline[T](channel.Info{ID: b.nextChannelID(), ScopeLevel: s.scopeLevel}, b.conf.BatchCapacity)
	s.out.AddTee(pipe)

	in := operator.NewInputHandle[T](0, pipe, s.scopeLevel, 1)
	core := &sinkCore[T]{info: operator.Info{Index: b.nextIndex(), Name: name, ScopeLevel: s.scopeLevel}, in: in, onItems: onItems, onEnd: onEnd}
	b.register(core)
}
