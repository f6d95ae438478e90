package joberr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIOErrorUnwrapsToSentinel(t *testing.T) {
	err := NewIOError("pull", ErrDisconnected)
	require.True(t, errors.Is(err, ErrDisconnected))
	require.Contains(t, err.Error(), "pull")
}

func TestJobExecErrorUnwrapsUnderlying(t *testing.T) {
	cause := errors.New("boom")
	err := NewJobExecError("map.double", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "map.double")
}

func TestFromPanicWrapsNonErrorValue(t *testing.T) {
	err := FromPanic("sink", "unexpected nil slice")
	require.Contains(t, err.Error(), "unexpected nil slice")
	require.Contains(t, err.Error(), "sink")
}

func TestFromPanicPreservesErrorValue(t *testing.T) {
	cause := errors.New("index out of range")
	err := FromPanic("map", cause)
	require.ErrorIs(t, err, cause)
}

func TestAggregateCombinesNonNilErrors(t *testing.T) {
	e1 := errors.New("worker 0 failed")
	e2 := errors.New("worker 1 failed")
	combined := Aggregate(nil, e1, nil, e2)
	require.ErrorIs(t, combined, e1)
	require.ErrorIs(t, combined, e2)
}

func TestAggregateAllNilReturnsNil(t *testing.T) {
	require.NoError(t, Aggregate(nil, nil))
}

func TestAppendAccumulatesAcrossCalls(t *testing.T) {
	var all error
	all = Append(all, errors.New("first"))
	all = Append(all, nil)
	all = Append(all, errors.New("second"))
	require.Error(t, all)
}
