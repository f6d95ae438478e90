package job

import (
	"github.com/tevino/abool"
	"go.uber.org/atomic"

	"github.com/graphscope/pegasus-go/internal/metrics"
	"github.com/graphscope/pegasus-go/tag"
)

// Item is one value a ResultStream yields, tagged with the scope it
// closed under — useful when O itself doesn't carry enough identity to
// tell which top-level input produced it (e.g. after an Aggregate).
type Item[O any] struct {
	Tag   tag.Tag
	Value O
}

// ResultStream is the blocking iterator spec.md §6 exposes: Result<O,
// JobError> values, plus cancel() and try_next(). The zero value is not
// usable; construct one via Run.
type ResultStream[O any] struct {
	jobName   string
	items     chan Item[O]
	done      chan struct{}
	err       atomic.Error
	cancelled *abool.AtomicBool
	cancelFn  func()
}

func newResultStream[O any](jobName string, bufferSize int, cancelFn func()) *ResultStream[O] {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &ResultStream[O]{
		jobName:   jobName,
		items:     make(chan Item[O], bufferSize),
		done:      make(chan struct{}),
		cancelled: abool.New(),
		cancelFn:  cancelFn,
	}
}

// Next blocks for the next item. ok is false once the stream is
// exhausted or poisoned by a terminal error; callers check Err after the
// first such false to distinguish the two per spec.md §7's "yields
// Ok(item) for each data item, then either exhausts cleanly or yields
// one Err(e) and becomes poisoned".
func (r *ResultStream[O]) Next() (O, bool) {
	v, ok := <-r.items
	return v.Value, ok
}

// TryNext is Next's non-blocking form: ok is false if no item is ready
// yet (which is not the same as exhaustion — check Err / a closed Done
// channel for that).
func (r *ResultStream[O]) TryNext() (O, bool) {
	select {
	case v, ok := <-r.items:
		return v.Value, ok
	default:
		var zero O
		return zero, false
	}
}

// Cancel flips the stream's shared cancellation flag and fans a cancel
// out to every worker's sink scopes (spec.md §5). Idempotent.
func (r *ResultStream[O]) Cancel() {
	if r.cancelled.SetToIf(false, true) {
		metrics.JobsCancelledTotal.WithLabelValues(r.jobName).Inc()
		r.cancelFn()
	}
}

// Cancelled reports whether Cancel has been called.
func (r *ResultStream[O]) Cancelled() bool { return r.cancelled.IsSet() }

// Err returns the terminal job-level error, if any, once the stream has
// stopped producing items. Nil before then and on clean exhaustion.
func (r *ResultStream[O]) Err() error { return r.err.Load() }

// Done returns a channel closed once the stream has fully drained (no
// more items will ever arrive) and Err reflects its final state.
func (r *ResultStream[O]) Done() <-chan struct{} { return r.done }
