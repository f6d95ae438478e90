package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/job"
	"github.com/graphscope/pegasus-go/worker"
)

var s2Cmd = &cobra.Command{
	Use:   "s2",
	Short: "Repartition-distinct-count: repartition(key) -> dedup -> count -> aggregate -> sum",
	Long: `Input [1,1,2,2,3,3], repartition(|x| x) -> per-scope dedup -> count per
worker -> aggregate -> sum. Expected: [3].`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runS2(workers)
	},
}

func runS2(workersPerServer int) error {
	conf := job.Conf{JobName: "s2-repartition-distinct-count", WorkersPerServer: workersPerServer, BatchSize: 4, BatchCapacity: 8}

	rs, err := job.Run(conf, log, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[uint64], error) {
		src := dataflow.FromSlice(b, "src", []int{1, 1, 2, 2, 3, 3})
		repart := dataflow.Repartition(src, "repart", func(v int) uint64 { return uint64(v) })

		seen := make(map[int]bool)
		deduped := dataflow.FlatMap(repart, "dedup", func(v int) ([]int, error) {
			if seen[v] {
				return nil, nil
			}
			seen[v] = true
			return []int{v}, nil
		})

		partialCount := dataflow.Count(deduped, "count")
		agg := dataflow.Aggregate(partialCount, "aggregate")
		if agg == nil {
			return nil, nil
		}
		return dataflow.Fold(agg, "sum", func() uint64 { return 0 }, func(acc uint64, v uint64) uint64 { return acc + v }), nil
	})
	if err != nil {
		return err
	}

	for v, ok := rs.Next(); ok; v, ok = rs.Next() {
		fmt.Printf("s2: distinct count = %d\n", v)
	}
	return rs.Err()
}
