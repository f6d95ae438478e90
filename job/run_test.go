package job

import (
	"sort"
	"testing"
	"time"

	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/worker"
	"github.com/stretchr/testify/require"
)

func drain[O any](t *testing.T, rs *ResultStream[O], timeout time.Duration) []O {
	t.Helper()
	var got []O
	deadline := time.After(timeout)
	for {
		select {
		case <-rs.Done():
			for {
				v, ok := rs.TryNext()
				if !ok {
					return got
				}
				got = append(got, v)
			}
		case <-deadline:
			t.Fatal("job did not complete within timeout")
			return nil
		default:
			if v, ok := rs.TryNext(); ok {
				got = append(got, v)
			}
		}
	}
}

func TestRunDoublesEachInputAcrossWorkers(t *testing.T) {
	conf := Conf{JobName: "double", WorkersPerServer: 2, BatchSize: 4, BatchCapacity: 4}

	rs, err := Run(conf, nil, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[int], error) {
		src := dataflow.FromSlice(b, "src", []int{1, 2, 3, 4, 5, 6})
		return dataflow.Map(src, "double", func(v int) (int, error) { return v * 2, nil }), nil
	})
	require.NoError(t, err)

	got := drain(t, rs, 2*time.Second)
	sort.Ints(got)
	require.Equal(t, []int{2, 4, 6, 8, 10, 12}, got)
	require.NoError(t, rs.Err())
}

func TestRunSurfacesBuildJobErrorSynchronously(t *testing.T) {
	conf := Conf{JobName: "broken", WorkersPerServer: 1}

	_, err := Run(conf, nil, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[int], error) {
		return nil, errBoom
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "build")
}

func TestRunCancelStopsConsumption(t *testing.T) {
	conf := Conf{JobName: "cancel", WorkersPerServer: 1, BatchSize: 4, BatchCapacity: 4}

	rs, err := Run(conf, nil, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[int], error) {
		src := dataflow.FromSlice(b, "src", []int{1, 2, 3})
		return src, nil
	})
	require.NoError(t, err)

	rs.Cancel()
	require.True(t, rs.Cancelled())

	select {
	case <-rs.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish after cancel")
	}
}

func TestRunHandlesAggregateNilStreamOnNonTargetWorkers(t *testing.T) {
	conf := Conf{JobName: "aggregate-count", WorkersPerServer: 3, BatchSize: 4, BatchCapacity: 4}

	rs, err := Run(conf, nil, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[uint64], error) {
		src := dataflow.FromSlice(b, "src", []int{1, 2, 3, 4, 5, 6, 7, 8, 9})
		doubled := dataflow.Map(src, "double", func(v int) (int, error) { return v * 2, nil })
		agg := dataflow.Aggregate(doubled, "aggregate")
		if agg == nil {
			return nil, nil
		}
		return dataflow.Count(agg, "count"), nil
	})
	require.NoError(t, err)

	got := drain(t, rs, 2*time.Second)
	require.NoError(t, rs.Err())
	require.Equal(t, []uint64{9}, got)
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
