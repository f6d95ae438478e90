// Package scheduler implements the cooperative, single-threaded
// per-worker tick loop: fire ready operators, drain the event bus,
// detect quiescence (spec.md §4.8). One Scheduler drives one worker's
// entire operator set; workers run on separate OS threads but nothing
// inside a Scheduler itself is safe for concurrent use.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/graphscope/pegasus-go/event"
	"github.com/graphscope/pegasus-go/internal/metrics"
	"github.com/graphscope/pegasus-go/joberr"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/sirupsen/logrus"
)

// ErrWatchdogExpired is returned by Run when conf.time_limit elapses
// before the plan reaches quiescence.
var ErrWatchdogExpired = fmt.Errorf("scheduler: watchdog expired before quiescence")

// entry tracks one operator's scheduling state: whether its last tick
// returned would-block, so a just-unblocked operator can be bumped
// ahead of the steady FIFO order next tick (spec.md §4.8 step 2).
type entry struct {
	core      operator.Core
	blocked   bool
	justFired bool
}

// Scheduler holds one worker's operator set and drives it to
// quiescence. It does not itself know about sinks or cancellation;
// package job wires a watchdog's timeout into cancelling the plan's
// sinks, using Scheduler only to run ticks.
type Scheduler struct {
	bus     *event.Bus
	entries []*entry
	log     *logrus.Entry

	jobLabel    string
	workerLabel string

	tick uint64
}

// New creates a Scheduler over ops (in the order package dataflow's
// Builder registered them — the steady-state FIFO order ties break).
// log's "job" and "worker" fields, if present (callers such as
// worker.Pool.Spawn and package job set them), become metric labels.
func New(bus *event.Bus, ops []operator.Core, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	entries := make([]*entry, len(ops))
	for i, op := range ops {
		entries[i] = &entry{core: op}
	}
	return &Scheduler{
		bus:         bus,
		entries:     entries,
		log:         log,
		jobLabel:    fieldString(log, "job"),
		workerLabel: fieldString(log, "worker"),
	}
}

func fieldString(log *logrus.Entry, key string) string {
	if v, ok := log.Data[key]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

// Tick runs exactly one scheduling pass: drain the event bus (step 1),
// then fire every operator once in priority order — operators that
// just unblocked go first, the rest follow registration order (steps
// 2-4). It returns true if every operator returned Done this pass (none
// Blocked). That is a necessary, but not sufficient, condition for the
// plan being finished — an operator can sit forever returning Done
// while genuinely waiting on a remote worker's contribution that never
// arrives (spec.md §4.8's own termination check (b) needs the
// per-channel receive-counter comparison, not just "nobody blocked this
// tick"). Run therefore only uses this as a fallback when the caller
// has no sharper completion predicate of its own.
func (s *Scheduler) Tick() (allDone bool, err error) {
	s.tick++
	metrics.SchedulerTicks.WithLabelValues(s.jobLabel, s.workerLabel).Inc()
	if n := s.bus.Drain(); n > 0 {
		s.log.WithField("count", n).Trace("scheduler: drained events")
	}

	ordered := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.justFired {
			ordered = append(ordered, e)
		}
	}
	for _, e := range s.entries {
		if !e.justFired {
			ordered = append(ordered, e)
		}
	}

	anyBlocked := false
	for _, e := range ordered {
		e.justFired = false
		wasBlocked := e.blocked
		sig := s.fire(e)
		switch {
		case sig.IsFailed():
			return false, sig.Err
		case sig.IsBlocked():
			e.blocked = true
			anyBlocked = true
		default:
			if wasBlocked {
				e.justFired = true
			}
			e.blocked = false
		}
	}
	return !anyBlocked, nil
}

// fire calls one operator's OnReceive, converting a user-code panic at
// this boundary into a Failed signal wrapping a joberr.JobExecError
// (spec.md §7), instead of letting it unwind the worker goroutine.
func (s *Scheduler) fire(e *entry) (sig operator.Signal) {
	name := e.core.Info().Name
	defer func() {
		if r := recover(); r != nil {
			sig = operator.FailedSignal(joberr.FromPanic(name, r))
			metrics.OperatorFailuresTotal.WithLabelValues(s.jobLabel, name).Inc()
		}
		metrics.OperatorFiresTotal.WithLabelValues(s.jobLabel, name, sig.String()).Inc()
	}()
	return e.core.OnReceive()
}

// idleConfirmPasses is how many consecutive all-Done passes the
// fallback completion check waits for before declaring quiescence, when
// the caller supplies no sharper isDone predicate. A single all-Done
// pass can be a coincidence of tick ordering; a short streak is cheap
// insurance without meaningfully delaying real termination.
const idleConfirmPasses = 3

// Run ticks until isDone reports true, ctx is cancelled, or deadline
// elapses, whichever comes first. A nil deadline means no watchdog. A
// nil isDone falls back to Tick's all-Done streak, which is correct for
// plans with no cross-worker channels (nothing to get stuck waiting
// on) but is only a heuristic in general — callers that know their
// plan's real completion condition (e.g. job.run tracking every sink's
// EndOfScope) should pass it explicitly.
func (s *Scheduler) Run(ctx context.Context, deadline time.Duration, isDone func() bool) error {
	var timer <-chan time.Time
	if deadline > 0 {
		t := time.NewTimer(deadline)
		defer t.Stop()
		timer = t.C
	}
	idleStreak := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer:
			metrics.SchedulerWatchdogExpirationsTotal.WithLabelValues(s.jobLabel, s.workerLabel).Inc()
			return ErrWatchdogExpired
		default:
		}

		allDone, err := s.Tick()
		if err != nil {
			return err
		}

		if isDone != nil {
			if isDone() {
				return nil
			}
			continue
		}
		if allDone {
			idleStreak++
			if idleStreak >= idleConfirmPasses {
				return nil
			}
		} else {
			idleStreak = 0
		}
	}
}

// Ops exposes the scheduled operators, e.g. so a job can drive a cancel
// fan-out through OnCancel after a watchdog timeout.
func (s *Scheduler) Ops() []operator.Core {
	ops := make([]operator.Core, len(s.entries))
	for i, e := range s.entries {
		ops[i] = e.core
	}
	return ops
}
