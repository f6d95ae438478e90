package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every scenario (s1-s6) plus the transport demo in sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarios := []struct {
			name string
			run  func() error
		}{
			{"s1", func() error { return runS1(workers) }},
			{"s2", func() error { return runS2(workers) }},
			{"s3", func() error { return runS3(workers) }},
			{"s4", func() error { return runS4(workers) }},
			{"s5", func() error { return runS5(workers) }},
			{"s6", func() error { return runS6(workers) }},
			{"transport-demo", runTransportDemo},
		}
		for _, s := range scenarios {
			fmt.Printf("=== %s ===\n", s.name)
			if err := s.run(); err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
		}
		return nil
	},
}
