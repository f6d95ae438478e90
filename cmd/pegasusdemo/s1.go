package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/job"
	"github.com/graphscope/pegasus-go/worker"
)

var s1Cmd = &cobra.Command{
	Use:   "s1",
	Short: "Map-count: map(x*2) -> aggregate -> count",
	Long: `Input [1,2,3,4,5] sharded round-robin across workers,
map(|x| x*2) -> aggregate(target worker 0) -> count.
Expected sink output: [5].`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runS1(workers)
	},
}

func runS1(workersPerServer int) error {
	conf := job.Conf{JobName: "s1-map-count", WorkersPerServer: workersPerServer, BatchSize: 4, BatchCapacity: 8}

	rs, err := job.Run(conf, log, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[uint64], error) {
		src := dataflow.FromSlice(b, "src", []int{1, 2, 3, 4, 5})
		doubled := dataflow.Map(src, "double", func(v int) (int, error) { return v * 2, nil })
		agg := dataflow.Aggregate(doubled, "aggregate")
		if agg == nil {
			return nil, nil
		}
		return dataflow.Count(agg, "count"), nil
	})
	if err != nil {
		return err
	}

	for v, ok := rs.Next(); ok; v, ok = rs.Next() {
		fmt.Printf("s1: count = %d\n", v)
	}
	return rs.Err()
}
