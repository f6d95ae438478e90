package apply

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/tag"
)

type queuedItem[I any] struct {
	t    tag.Tag
	item I
}

// admissionCore throttles how many apply scopes EnterScope is allowed
// to have open at once (spec.md §4.7's apply_parallel(p, ...)): items
// beyond the limit wait here rather than opening a scope, since every
// open scope costs a tag slot and per-scope state in every downstream
// operator. It forwards EndOfScope for a parent tag only once every
// item queued under that tag (all of which share one parent batch in
// the common case this runtime targets) has been admitted.
type admissionCore[I any] struct {
	info  operator.Info
	in    *operator.InputHandle[I]
	out   *operator.OutputHandle[I]
	state *applyState[I]
	limit int

	queue       []queuedItem[I]
	pendingEnds []tag.Tag
}

func (a *admissionCore[I]) Info() operator.Info { return a.info }

func (a *admissionCore[I]) OnReceive() operator.Signal {
	for {
		b, err := a.in.TryNext()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if b == nil {
			break
		}
		if b.Len() > 0 {
			for _, item := range b.Data.Iter() {
				a.queue = append(a.queue, queuedItem[I]{t: b.Tag, item: item})
			}
		}
		b.Release()
	}
	a.pendingEnds = append(a.pendingEnds, a.in.DrainClosed()...)

	for len(a.queue) > 0 && a.state.openCount < a.limit {
		qi := a.queue[0]
		sess := a.out.Session(qi.t)
		if _, err := sess.Give(qi.item); err != nil {
			return operator.FailedSignal(err)
		}
		res, err := sess.Flush()
		if err != nil {
			return operator.FailedSignal(err)
		}
		if res == channel.WouldBlock {
			break
		}
		a.queue = a.queue[1:]
		a.state.openCount++
	}

	if len(a.queue) == 0 {
		for _, t := range a.pendingEnds {
			if _, err := a.out.NotifyEnd(t, databatch.EndOfScope{Tag: t, SourceWeight: databatch.AllWeight()}); err != nil {
				return operator.FailedSignal(err)
			}
		}
		a.pendingEnds = nil
	}

	if len(a.queue) > 0 {
		return operator.BlockedSignal()
	}
	return operator.DoneSignal()
}

func (a *admissionCore[I]) OnNotify(tag.Tag) operator.Signal { return operator.DoneSignal() }
func (a *admissionCore[I]) OnCancel(t tag.Tag) {
	a.out.Cancel(t)
	a.in.Cancel(t)
}

// ApplyParallel is Apply with at most limit subtask scopes open at
// once. New items queue in an admission operator spliced ahead of
// EnterScope until a previously opened scope closes.
func ApplyParallel[I, O any](s *dataflow.Stream[I], name string, limit int, sub func(*dataflow.Stream[I]) *dataflow.Stream[O]) *dataflow.Stream[Pair[I, O]] {
	if limit < 1 {
		limit = 1
	}
	b := s.Builder()
	conf := b.Conf()
	parentLevel := s.ScopeLevel()
	state := newApplyState[I]()

	admitPipe := channel.NewPipeline[I](channel.Info{ID: b.NextChannelID(), ScopeLevel: parentLevel}, conf.BatchCapacity)
	s.Output().AddTee(admitPipe)
	admitIn := operator.NewInputHandle[I](0, admitPipe, parentLevel, 1)
	admitOut := operator.NewOutputHandle[I](0, databatch.NewBufferPool[I](conf.BatchSize))
	admitCore := &admissionCore[I]{
		info:  operator.Info{Index: b.NextIndex(), Name: name + ".admit", ScopeLevel: parentLevel},
		in:    admitIn,
		out:   admitOut,
		state: state,
		limit: limit,
	}
	b.Register(admitCore)

	admitted := dataflow.NewStream(b, admitOut, parentLevel)
	return applyWithState(admitted, name, state, sub)
}

// applyWithState is Apply's body, parameterized on a pre-existing
// applyState so ApplyParallel's admission operator and EnterScope share
// the same open-scope bookkeeping.
func applyWithState[I, O any](s *dataflow.Stream[I], name string, state *applyState[I], sub func(*dataflow.Stream[I]) *dataflow.Stream[O]) *dataflow.Stream[Pair[I, O]] {
	b := s.Builder()
	conf := b.Conf()
	parentLevel := s.ScopeLevel()
	childLevel := parentLevel + 1

	parentPipe := channel.NewPipeline[I](channel.Info{ID: b.NextChannelID(), ScopeLevel: parentLevel}, conf.BatchCapacity)
	s.Output().AddTee(parentPipe)
	enterIn := operator.NewInputHandle[I](0, parentPipe, parentLevel, 1)
	enterOut := operator.NewOutputHandle[I](0, databatch.NewBufferPool[I](conf.BatchSize))
	enterCore := &enterScopeCore[I]{
		info:  operator.Info{Index: b.NextIndex(), Name: name + ".enter", ScopeLevel: parentLevel},
		in:    enterIn,
		out:   enterOut,
		state: state,
	}
	b.Register(enterCore)

	bodyOut := sub(dataflow.NewStream(b, enterOut, childLevel))

	childPipe := channel.NewPipeline[O](channel.Info{ID: b.NextChannelID(), ScopeLevel: childLevel}, conf.BatchCapacity)
	bodyOut.Output().AddTee(childPipe)
	leaveIn := operator.NewInputHandle[O](0, childPipe, childLevel, 1)
	leaveOut := operator.NewOutputHandle[Pair[I, O]](0, databatch.NewBufferPool[Pair[I, O]](conf.BatchSize))
	leaveCore := &leaveScopeCore[I, O]{
		info:  operator.Info{Index: b.NextIndex(), Name: name + ".leave", ScopeLevel: parentLevel},
		in:    leaveIn,
		out:   leaveOut,
		state: state,
	}
	b.Register(leaveCore)

	return dataflow.NewStream(b, leaveOut, parentLevel)
}
