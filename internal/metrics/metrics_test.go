package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestOperatorFiresTotalIncrements(t *testing.T) {
	before := testutil.ToFloat64(OperatorFiresTotal.WithLabelValues("job-a", "op1", "done"))
	OperatorFiresTotal.WithLabelValues("job-a", "op1", "done").Inc()
	after := testutil.ToFloat64(OperatorFiresTotal.WithLabelValues("job-a", "op1", "done"))
	require.Equal(t, before+1, after)
}

func TestActiveWorkersGaugeIncDec(t *testing.T) {
	g := ActiveWorkers.WithLabelValues("job-b")
	g.Inc()
	g.Inc()
	require.Equal(t, float64(2), testutil.ToFloat64(g))
	g.Dec()
	require.Equal(t, float64(1), testutil.ToFloat64(g))
}
