// Package metrics implements Prometheus metrics for this runtime.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperatorFiresTotal counts operator invocations by operator name and
	// the signal they returned (done/blocked/failed).
	OperatorFiresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pegasus_operator_fires_total",
			Help: "Total number of operator OnReceive invocations",
		},
		[]string{"job", "operator", "signal"},
	)

	// OperatorFailuresTotal counts operator panics converted into
	// JobExecError by the scheduler's panic-recovery boundary.
	OperatorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pegasus_operator_failures_total",
			Help: "Total number of operator panics caught at the operator boundary",
		},
		[]string{"job", "operator"},
	)

	// SchedulerTicks counts scheduler Tick calls per worker.
	SchedulerTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pegasus_scheduler_ticks_total",
			Help: "Total number of scheduler ticks executed",
		},
		[]string{"job", "worker"},
	)

	// SchedulerWatchdogExpirationsTotal counts jobs that hit the
	// time_limit watchdog before reaching completion.
	SchedulerWatchdogExpirationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pegasus_scheduler_watchdog_expirations_total",
			Help: "Total number of worker runs terminated by watchdog expiry",
		},
		[]string{"job", "worker"},
	)

	// JobResultsTotal counts items yielded by a job's ResultStream.
	JobResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pegasus_job_results_total",
			Help: "Total number of result items yielded by a job",
		},
		[]string{"job"},
	)

	// JobsCancelledTotal counts jobs cancelled via ResultStream.Cancel.
	JobsCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pegasus_jobs_cancelled_total",
			Help: "Total number of jobs cancelled before natural completion",
		},
		[]string{"job"},
	)

	// ActiveWorkers tracks the number of currently running workers.
	ActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pegasus_active_workers",
			Help: "Current number of running workers",
		},
		[]string{"job"},
	)
)
