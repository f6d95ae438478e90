package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/iteration"
	"github.com/graphscope/pegasus-go/job"
	"github.com/graphscope/pegasus-go/worker"
)

var s3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "Iterate collatz-like: iterate_until(x==1, max=200, map(collatz step))",
	Long: `Input [10, 100, 1000], iterate_until(until: x == 1, max=200,
body: map(|x| if x%2==0 { x/2 } else { 3*x+1 })). Expected: [1, 1, 1].
(The testable-property spec's max=10000 is a safety ceiling; 200 already
bounds every one of these three starting values, and Iterate unrolls its
body at build time, so a smaller demo ceiling keeps the built plan a
sane size.)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runS3(workers)
	},
}

func runS3(workersPerServer int) error {
	conf := job.Conf{JobName: "s3-collatz", WorkersPerServer: workersPerServer, BatchSize: 4, BatchCapacity: 8, MaxScopeDepth: 2}

	rs, err := job.Run(conf, log, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[int], error) {
		src := dataflow.FromSlice(b, "src", []int{10, 100, 1000})
		result := iteration.IterateUntil(src, "collatz", 200, func(v int) bool { return v == 1 },
			func(s *dataflow.Stream[int]) *dataflow.Stream[int] {
				return dataflow.Map(s, "step", func(v int) (int, error) {
					if v%2 == 0 {
						return v / 2, nil
					}
					return 3*v + 1, nil
				})
			})
		return result, nil
	})
	if err != nil {
		return err
	}

	for v, ok := rs.Next(); ok; v, ok = rs.Next() {
		fmt.Printf("s3: converged = %d\n", v)
	}
	return rs.Err()
}
