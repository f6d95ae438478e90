package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphscope/pegasus-go/apply"
	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/job"
	"github.com/graphscope/pegasus-go/worker"
)

var s4Cmd = &cobra.Command{
	Use:   "s4",
	Short: "Correlated subtask apply: apply(|s| s.flat_map(0..i).collect())",
	Long: `Input [1,2,3,4], apply(|s| s.flat_map(|i| 0..i).collect()).
Expected: (1,[0]), (2,[0,1]), (3,[0,1,2]), (4,[0,1,2,3]).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runS4(workers)
	},
}

func runS4(workersPerServer int) error {
	conf := job.Conf{JobName: "s4-apply-range", WorkersPerServer: workersPerServer, BatchSize: 4, BatchCapacity: 8, MaxScopeDepth: 2}

	rs, err := job.Run(conf, log, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[apply.Pair[int, []int]], error) {
		src := dataflow.FromSlice(b, "src", []int{1, 2, 3, 4})
		result := apply.Apply(src, "apply", func(s *dataflow.Stream[int]) *dataflow.Stream[[]int] {
			expanded := dataflow.FlatMap(s, "range", func(i int) ([]int, error) {
				out := make([]int, 0, i)
				for j := 0; j < i; j++ {
					out = append(out, j)
				}
				return out, nil
			})
			return dataflow.Fold(expanded, "collect", func() []int { return nil },
				func(acc []int, v int) []int { return append(acc, v) })
		})
		return result, nil
	})
	if err != nil {
		return err
	}

	for v, ok := rs.Next(); ok; v, ok = rs.Next() {
		fmt.Printf("s4: (%d, %v)\n", v.In, v.Out)
	}
	return rs.Err()
}
