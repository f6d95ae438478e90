// Package dataflow implements the job builder and Stream combinator API
// (spec.md §4.5): a single-threaded, non-executing construction phase
// that appends operators and channels to a shared plan. Nothing in this
// package runs user data through an operator — it only wires the graph
// the scheduler later drives.
package dataflow

// Conf holds the job-wide defaults spec.md §2.1's ambient configuration
// section names: batch_size, batch_capacity, and the peer count every
// worker's build call replicates against.
type Conf struct {
	BatchSize     int
	BatchCapacity int
	Peers         int
	MaxScopeDepth int
}

// DefaultConf returns sane defaults for the demo scenarios.
func DefaultConf() Conf {
	return Conf{BatchSize: 64, BatchCapacity: 16, Peers: 1, MaxScopeDepth: 4}
}
