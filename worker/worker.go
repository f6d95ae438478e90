// Package worker implements the process-wide worker registry and the
// per-worker execution loop (spec.md §4.8, §5): one OS thread per worker,
// cooperative single-threaded scheduling within it. The registry is
// initialized once per job and is read-only for the job's lifetime.
package worker

import (
	"context"
	"fmt"

	"github.com/graphscope/pegasus-go/event"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/scheduler"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// Id identifies one worker within a job: the job's index, the worker's
// index among the job's peers and the peer total, plus the server's own
// index and server count (spec.md §3's WorkerId). Stable for the life of
// the job.
type Id struct {
	JobIndex     int
	PeerIndex    int
	PeersTotal   int
	ServerIndex  int
	ServersTotal int
}

// String renders an Id as "job/peer of peers (server/servers)", used in
// log fields and panic messages.
func (w Id) String() string {
	return fmt.Sprintf("job%d/peer%d(%d/%d peers, server %d/%d)",
		w.JobIndex, w.PeerIndex, w.PeerIndex+1, w.PeersTotal, w.ServerIndex+1, w.ServersTotal)
}

// IsLocalTo reports whether w and other share the same server index,
// i.e. routing between them never needs the transport.
func (w Id) IsLocalTo(other Id) bool { return w.ServerIndex == other.ServerIndex }

type currentKey struct{}

// withCurrent returns a context carrying w as the worker-local identity
// queryable by Current.
func withCurrent(ctx context.Context, w Id) context.Context {
	return context.WithValue(ctx, currentKey{}, w)
}

// Current returns the Id of the worker whose goroutine tree ctx was
// derived from (spec.md §6's get_current_worker()). It panics if ctx was
// never derived from a context a Pool handed to a BuildFunc, since that
// indicates a programming error (code running outside any worker).
func Current(ctx context.Context) Id {
	w, ok := ctx.Value(currentKey{}).(Id)
	if !ok {
		panic("worker: Current called outside a worker's execution context")
	}
	return w
}

// BuildFunc constructs and drives one worker's dataflow to completion. It
// receives the worker's Id, its Scheduler (already populated with every
// operator.Core the caller's dataflow.Builder registered), and a context
// cancelled on job-wide shutdown. Implementations call sched.Run, using
// ctx's cancellation or a watchdog deadline to bound the run.
type BuildFunc func(ctx context.Context, id Id, sched *scheduler.Scheduler) error

// Pool runs one goroutine per local worker peer, each cooperatively
// single-threaded per spec.md §5: "one OS-thread per worker, operators
// within a worker are not concurrent with each other". Peers on other
// servers are out of this Pool's scope; they run in their own process's
// Pool and communicate only through the transport.
type Pool struct {
	wg  conc.WaitGroup
	log *logrus.Entry
}

// NewPool creates an empty Pool. log may be nil, in which case the
// standard logger is used.
func NewPool(log *logrus.Entry) *Pool {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pool{log: log}
}

// Spawn launches one worker goroutine running build(ctx, id, sched). The
// goroutine is tracked by the Pool's WaitGroup; build's returned error is
// only logged here — propagating it to the job is the caller's concern
// (package job aggregates one error per worker over its own channel). A
// genuine panic inside build is a different matter: conc recovers it and
// Wait re-raises it (aggregated with any sibling panics), since that
// indicates a defect this runtime's own panic-at-operator-boundary
// handling (scheduler.fire) did not already convert to a JobExecError.
func (p *Pool) Spawn(ctx context.Context, id Id, bus *event.Bus, ops []operator.Core, build BuildFunc) {
	workerCtx := withCurrent(ctx, id)
	log := p.log.WithField("worker", id.String())
	sched := scheduler.New(bus, ops, log)
	p.wg.Go(func() {
		log.Debug("worker: starting")
		if err := build(workerCtx, id, sched); err != nil {
			log.WithError(err).Warn("worker: exited with error")
			return
		}
		log.Debug("worker: finished")
	})
}

// Wait blocks until every Spawned worker goroutine returns, re-panicking
// with an aggregated message if any of them panicked.
func (p *Pool) Wait() {
	p.wg.Wait()
}
