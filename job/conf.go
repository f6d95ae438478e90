// Package job implements the job submission surface spec.md §6
// exposes: run(conf, build_fn) -> ResultStream<O>. It wires together
// dataflow.Builder, worker.Pool, scheduler.Scheduler and the event bus
// into one SPMD job, enforces the time_limit watchdog, and is the home
// of the sharper completion predicate scheduler.Run's doc comment
// expects a caller to supply — here, "every worker's result sink has
// closed its root scope".
package job

import "github.com/graphscope/pegasus-go/dataflow"

// ServerConf identifies this process's slot among the job's servers.
// The core's own execution is single-server (workers_per_server peers
// sharing one process and one channel.Registry); multi-server jobs
// exist only insofar as WorkerId carries server_index/servers_total for
// routing decisions a real transport would use — wiring an actual
// multi-process rendezvous is the collaborator's concern (spec.md §1).
type ServerConf struct {
	ServerIndex  int
	ServersTotal int
}

// Conf mirrors spec.md §6's run() configuration.
type Conf struct {
	JobID            uint64
	JobName          string
	WorkersPerServer int
	Servers          ServerConf
	BatchSize        int
	BatchCapacity    int
	TimeLimitMs      int
	TraceEnabled     bool
	MaxScopeDepth    int
}

func (c Conf) withDefaults() Conf {
	if c.WorkersPerServer < 1 {
		c.WorkersPerServer = 1
	}
	if c.BatchSize < 1 {
		c.BatchSize = 256
	}
	if c.BatchCapacity < 1 {
		c.BatchCapacity = c.BatchSize * 4
	}
	if c.Servers.ServersTotal < 1 {
		c.Servers.ServersTotal = 1
	}
	if c.MaxScopeDepth < 1 {
		c.MaxScopeDepth = 4
	}
	return c
}

func (c Conf) dataflowConf() dataflow.Conf {
	return dataflow.Conf{
		BatchSize:     c.BatchSize,
		BatchCapacity: c.BatchCapacity,
		Peers:         c.WorkersPerServer,
		MaxScopeDepth: c.MaxScopeDepth,
	}
}
