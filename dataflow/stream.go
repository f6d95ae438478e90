package dataflow

import "github.com/graphscope/pegasus-go/operator"

// Stream is a handle onto one worker's view of a dataflow edge: the
// builder it belongs to, the upstream operator's output port, and the
// scope depth at this point in the plan (spec.md §4.5: "a Stream<D> is a
// handle (builder, source_port, stream_meta)").
type Stream[T any] struct {
	b          *Builder
	out        *operator.OutputHandle[T]
	scopeLevel int
}

// ScopeLevel reports the nesting depth of tags flowing on this stream.
func (s *Stream[T]) ScopeLevel() int { return s.scopeLevel }

// Builder returns the builder this stream belongs to.
func (s *Stream[T]) Builder() *Builder { return s.b }

// Output returns this stream's upstream output handle, letting other
// packages in this module (iteration, apply) that construct their own
// operator.Core still tee off of it the way every combinator in this
// package does.
func (s *Stream[T]) Output() *operator.OutputHandle[T] { return s.out }

// NewStream wraps an externally-built output handle as a Stream, for
// packages that implement their own operator.Core (iteration's
// retagging operators, apply's EnterScope/LeaveScope) but still want to
// hand callers an ordinary Stream to keep composing with.
func NewStream[T any](b *Builder, out *operator.OutputHandle[T], scopeLevel int) *Stream[T] {
	return &Stream[T]{b: b, out: out, scopeLevel: scopeLevel}
}
