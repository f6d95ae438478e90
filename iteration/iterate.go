package iteration

import (
	"fmt"

	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/tag"
)

// Iterate unrolls body n times at build time, one copy per loop counter
// 0..n-1, each running at scope depth s.ScopeLevel()+1. max_iters is
// always known when the plan is built, so a static chain of retagged
// copies is a faithful (and much simpler) stand-in for the dynamic
// Feedback/IterationSync operator pair a cyclic-graph runtime would need
// to wire instead — there is no cycle in the resulting plan, so the
// scheduler's ready-set bookkeeping never has to reason about one.
func Iterate[T any](s *dataflow.Stream[T], name string, n int, body func(*dataflow.Stream[T]) *dataflow.Stream[T]) *dataflow.Stream[T] {
	if n <= 0 {
		return s
	}
	enterLevel := s.ScopeLevel() + 1

	cur := retag(s, name+".enter", enterLevel, func(t tag.Tag) tag.Tag { return t.Child(0) })
	out := body(cur)
	for k := 1; k < n; k++ {
		next := retag(out, fmt.Sprintf("%s.next[%d]", name, k), enterLevel, func(t tag.Tag) tag.Tag {
			return t.Parent().Child(uint32(k))
		})
		out = body(next)
	}
	return retag(out, name+".leave", s.ScopeLevel(), func(t tag.Tag) tag.Tag { return t.Parent() })
}

// IterateUntil unrolls maxIters rounds like Iterate, but at the start of
// each round filters items through cond (the first round sees the input
// items as they are): items for which cond reports true are done and
// flow straight to the result, skipping every remaining round; the rest
// go through body. Items still failing cond in the last round are forced
// out without another body pass, so body runs at most maxIters-1 times
// per item (spec.md §4.6's bounded fixpoint: it is a loop-until-converged
// with a hard iteration ceiling, not an unbounded one).
func IterateUntil[T any](s *dataflow.Stream[T], name string, maxIters int, cond func(T) bool, body func(*dataflow.Stream[T]) *dataflow.Stream[T]) *dataflow.Stream[T] {
	if maxIters <= 0 {
		return s
	}
	enterLevel := s.ScopeLevel() + 1

	cur := retag(s, name+".enter", enterLevel, func(t tag.Tag) tag.Tag { return t.Child(0) })
	var done *dataflow.Stream[T]

	for k := 0; k < maxIters; k++ {
		converged := dataflow.Filter(cur, fmt.Sprintf("%s.converged[%d]", name, k), cond)
		remaining := dataflow.Filter(cur, fmt.Sprintf("%s.remaining[%d]", name, k), func(v T) bool { return !cond(v) })

		if done == nil {
			done = converged
		} else {
			done = dataflow.Merge(done, converged, fmt.Sprintf("%s.doneMerge[%d]", name, k))
		}

		if k == maxIters-1 {
			// Last pass: whatever hasn't converged is forced out too.
			done = dataflow.Merge(done, remaining, name+".forceExit")
			break
		}

		afterBody := body(remaining)
		cur = retag(afterBody, fmt.Sprintf("%s.next[%d]", name, k+1), enterLevel, func(t tag.Tag) tag.Tag {
			return t.Parent().Child(uint32(k + 1))
		})
	}

	return retag(done, name+".leave", s.ScopeLevel(), func(t tag.Tag) tag.Tag { return t.Parent() })
}
