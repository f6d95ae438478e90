// Package joberr defines the error taxonomy a running job reports
// through (spec.md §7): wrapped sentinel kinds for IO, user-function and
// build failures, distinguished with errors.Is/errors.As, plus
// aggregation for the multiple operator failures a single cancel
// fan-out can surface at once.
package joberr

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Sentinel kinds. Wrap one of these with fmt.Errorf's %w (or the
// constructors below) rather than comparing error strings.
var (
	// ErrWouldBlock signals a channel push could not be completed
	// without exceeding batch_capacity. Not a real error: the kernel
	// recovers it locally by stashing and retrying (spec.md §7).
	ErrWouldBlock = errors.New("joberr: would block")

	// ErrDisconnected signals a channel's producer set has closed; a
	// normal end-of-input for pipeline channels, a remote-worker-ended
	// signal for networked ones.
	ErrDisconnected = errors.New("joberr: channel disconnected")

	// ErrCancelled signals a scope was reached after cancellation; any
	// in-flight batches under it are discarded, not delivered.
	ErrCancelled = errors.New("joberr: scope cancelled")

	// ErrInvalidState signals a kernel-contract violation, e.g. a push
	// attempted after the channel's close.
	ErrInvalidState = errors.New("joberr: invalid state")
)

// IOError wraps a transport- or channel-level failure (spec.md §7's IO
// taxonomy): disconnection, would-block, interruption, a broken pipe, or
// a cancelled scope reached in flight.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("joberr: io: %s: %v", e.Op, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err (typically one of the sentinels above, or an
// underlying transport error) as an IOError attributed to op.
func NewIOError(op string, err error) *IOError { return &IOError{Op: op, Err: err} }

// JobExecError wraps a user-function failure or a panic captured at an
// operator boundary (spec.md §7). Operator identifies which operator
// raised it, for the ResultStream's single terminal error.
type JobExecError struct {
	Operator string
	Err      error
}

func (e *JobExecError) Error() string {
	return fmt.Sprintf("joberr: exec: operator %q: %v", e.Operator, e.Err)
}
func (e *JobExecError) Unwrap() error { return e.Err }

// NewJobExecError wraps err as a JobExecError raised by the named
// operator.
func NewJobExecError(operator string, err error) *JobExecError {
	return &JobExecError{Operator: operator, Err: err}
}

// FromPanic recovers a panic captured at an operator boundary into a
// JobExecError, per spec.md §7's "panic in user code is caught at the
// operator boundary, converted to JobExecError". Call from a deferred
// recover().
func FromPanic(operator string, recovered any) *JobExecError {
	if err, ok := recovered.(error); ok {
		return NewJobExecError(operator, err)
	}
	return NewJobExecError(operator, fmt.Errorf("panic: %v", recovered))
}

// BuildJobError wraps a dataflow construction failure. It surfaces at
// the run() call, never during execution, since the graph is fully
// built before any worker starts (spec.md §7).
type BuildJobError struct {
	Err error
}

func (e *BuildJobError) Error() string { return fmt.Sprintf("joberr: build: %v", e.Err) }
func (e *BuildJobError) Unwrap() error  { return e.Err }

// NewBuildJobError wraps err as a BuildJobError.
func NewBuildJobError(err error) *BuildJobError { return &BuildJobError{Err: err} }

// StartupError wraps a network, address, or configuration failure at
// process init, before any job runs.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string { return fmt.Sprintf("joberr: startup: %v", e.Err) }
func (e *StartupError) Unwrap() error  { return e.Err }

// NewStartupError wraps err as a StartupError.
func NewStartupError(err error) *StartupError { return &StartupError{Err: err} }

// Aggregate combines every non-nil error in errs into one, so a job-wide
// cancel fan-out that hits several operators at once (spec.md §7:
// "terminates that operator, raises a job-level error, and cancels all
// scopes") can still surface a single terminal error to the
// ResultStream. Returns nil if every entry is nil.
func Aggregate(errs ...error) error {
	return multierr.Combine(errs...)
}

// Append is Aggregate for incremental accumulation, e.g. one failure per
// worker as each one's goroutine exits.
func Append(into error, err error) error {
	return multierr.Append(into, err)
}
