package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/job"
	"github.com/graphscope/pegasus-go/worker"
)

var s5Cmd = &cobra.Command{
	Use:   "s5",
	Short: "Early cancellation: map(identity) -> sink, cancel after 10 items",
	Long: `Input 0..1_000_000, map(identity) -> sink. The consumer calls Cancel()
after receiving 10 items. Expected: the stream yields at least 10 items,
no panic, and the job terminates within a bounded window after cancel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runS5(workers)
	},
}

func runS5(workersPerServer int) error {
	conf := job.Conf{JobName: "s5-early-cancel", WorkersPerServer: workersPerServer, BatchSize: 64, BatchCapacity: 256}

	input := make([]int, 1_000_000)
	for i := range input {
		input[i] = i
	}

	rs, err := job.Run(conf, log, func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[int], error) {
		src := dataflow.FromSlice(b, "src", input)
		return dataflow.Map(src, "identity", func(v int) (int, error) { return v, nil }), nil
	})
	if err != nil {
		return err
	}

	received := 0
	for received < 10 {
		if _, ok := rs.Next(); !ok {
			break
		}
		received++
	}
	fmt.Printf("s5: received %d items, cancelling\n", received)
	rs.Cancel()

	select {
	case <-rs.Done():
		fmt.Println("s5: job terminated after cancel")
	case <-time.After(5 * time.Second):
		return fmt.Errorf("s5: job did not terminate within bounded window after cancel")
	}
	return nil
}
