package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

// passthroughCore forwards every batch from its single input straight to
// its output unchanged. It backs the consuming side of repartition,
// aggregate, broadcast, and copied — combinators that change a stream's
// channel wiring without transforming the data itself.
type passthroughCore[T any] struct {
	info operator.Info
	in   *operator.InputHandle[T]
	out  *operator.OutputHandle[T]
}

func (p *passthroughCore[T]) Info() operator.Info { return p.info }

func (p *passthroughCore[T]) OnReceive() operator.Signal {
	for {
		b, err := p.in.TryNext()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if b == nil {
			break
		}
		if b.Len() > 0 {
			sess := p.out.Session(b.Tag)
			res, err := sess.GiveBatch(b)
			if err != nil {
				return operator.FailedSignal(err)
			}
			if res != channel.Pushed {
				return operator.BlockedSignal()
			}
		} else {
			b.Release()
		}
	}
	for _, closed := range p.in.DrainClosed() {
		if _, err := p.out.NotifyEnd(closed, databatch.EndOfScope{Tag: closed, SourceWeight: databatch.AllWeight()}); err != nil {
			return operator.FailedSignal(err)
		}
	}
	return operator.DoneSignal()
}

func (p *passthroughCore[T]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (p *passthroughCore[T]) OnCancel(t tag.Tag) {
	p.out.Cancel(t)
	p.in.Cancel(t)
}
