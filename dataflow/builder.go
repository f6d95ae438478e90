package dataflow

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/operator"
)

// Builder accumulates one worker's copy of a dataflow plan. A job's
// BuildFunc is invoked once per worker index against a fresh Builder
// sharing one *channel.Registry — since every worker runs the exact
// same sequence of combinator calls (SPMD symmetry, spec.md §5), the Nth
// channel allocated on every worker's Builder gets the same ID and thus
// resolves to the same registry-backed Exchange/Broadcast/Aggregate
// instance.
type Builder struct {
	conf     Conf
	worker   int
	registry *channel.Registry

	nextChan  int
	operators []operator.Core
}

// NewBuilder creates the Builder for one worker's build pass.
func NewBuilder(conf Conf, worker int, registry *channel.Registry) *Builder {
	if conf.Peers < 1 {
		conf.Peers = 1
	}
	return &Builder{conf: conf, worker: worker, registry: registry}
}

// Worker returns this build pass's worker index.
func (b *Builder) Worker() int { return b.worker }

// Conf returns the job configuration this builder was created with.
func (b *Builder) Conf() Conf { return b.conf }

// Operators returns every operator core registered so far, in
// registration order — the order the scheduler seeds its ready set.
func (b *Builder) Operators() []operator.Core { return b.operators }

func (b *Builder) nextChannelID() channel.ID {
	id := channel.ID(b.nextChan)
	b.nextChan++
	return id
}

func (b *Builder) register(c operator.Core) {
	b.operators = append(b.operators, c)
}

func (b *Builder) nextIndex() int { return len(b.operators) }

// NextChannelID, Register, and NextIndex are the exported forms of the
// above, for packages outside dataflow (iteration, apply) that build
// their own operator.Core but still wire it into this builder's plan
// exactly the way every in-package combinator does.
func (b *Builder) NextChannelID() channel.ID { return b.nextChannelID() }
func (b *Builder) Register(c operator.Core)  { b.register(c) }
func (b *Builder) NextIndex() int            { return b.nextIndex() }
