// Package main implements pegasusdemo, a CLI that runs spec.md §8's
// concrete end-to-end scenarios against the job submission API, mirroring
// the teacher's cobra-based command layout.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	workers  int
	log      *logrus.Entry
)

var rootCmd = &cobra.Command{
	Use:   "pegasusdemo",
	Short: "pegasusdemo runs end-to-end scenarios against the dataflow execution engine",
	Long: `pegasusdemo exercises the job submission surface (package job) with the
concrete scenarios this runtime's testable-property suite names: map-count,
repartition-distinct-count, bounded iteration, correlated-subtask apply,
early cancellation, and two-hop apply.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logger := logrus.New()
		logger.SetLevel(lvl)
		log = logrus.NewEntry(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 2, "workers_per_server for every scenario")

	rootCmd.AddCommand(s1Cmd)
	rootCmd.AddCommand(s2Cmd)
	rootCmd.AddCommand(s3Cmd)
	rootCmd.AddCommand(s4Cmd)
	rootCmd.AddCommand(s5Cmd)
	rootCmd.AddCommand(s6Cmd)
	rootCmd.AddCommand(transportCmd)
	rootCmd.AddCommand(allCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
