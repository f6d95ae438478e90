package job

import (
	"context"
	"fmt"
	"time"

	"github.com/tevino/abool"

	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/dataflow"
	"github.com/graphscope/pegasus-go/event"
	"github.com/graphscope/pegasus-go/internal/metrics"
	"github.com/graphscope/pegasus-go/joberr"
	"github.com/graphscope/pegasus-go/operator"
	"github.com/graphscope/pegasus-go/scheduler"
	"github.com/graphscope/pegasus-go/tag"
	"github.com/graphscope/pegasus-go/worker"
	"github.com/sirupsen/logrus"
)

// BuildFunc constructs one worker's dataflow and returns the stream
// whose items become this job's results (spec.md §6's "build_fn(worker)
// -> Fn(Source, Sink) -> Result<()>" — Run supplies the terminal sink
// itself, so BuildFunc only needs to return the stream to sink). A
// worker that has nothing to sink on this build pass (e.g. every peer
// but the target of a terminal dataflow.Aggregate) returns (nil, nil):
// Run still runs that worker's scheduler to completion, it just skips
// registering a result sink for it.
type BuildFunc[O any] func(b *dataflow.Builder, id worker.Id) (*dataflow.Stream[O], error)

// eventBusPartitions and eventBusQueueSize size each worker's local
// event.Bus; generous enough that Publish never sees a full partition
// under this runtime's own combinators.
const (
	eventBusPartitions = 4
	eventBusQueueSize  = 1024
)

// Run builds and executes a job per spec.md §6: build is called once per
// worker (SPMD symmetry), all workers_per_server peers run concurrently
// in this process sharing one channel.Registry, and the returned
// ResultStream yields every worker's sink output as it arrives. A build
// failure on any worker surfaces immediately as a BuildJobError, before
// any worker starts running — dataflow construction happens entirely
// before execution (spec.md §7).
func Run[O any](conf Conf, log *logrus.Entry, build BuildFunc[O]) (*ResultStream[O], error) {
	conf = conf.withDefaults()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("job", conf.JobName).WithField("job_id", conf.JobID)

	registry := channel.NewRegistry()
	dconf := conf.dataflowConf()

	type plan struct {
		id         worker.Id
		bus        *event.Bus
		ops        []operator.Core
		rootClosed *abool.AtomicBool
		hasSink    bool
	}

	plans := make([]plan, conf.WorkersPerServer)
	bufferSize := conf.BatchSize * conf.WorkersPerServer

	rs := newResultStream[O](conf.JobName, bufferSize, nil)
	ctx, cancel := context.WithCancel(context.Background())

	for w := 0; w < conf.WorkersPerServer; w++ {
		id := worker.Id{
			JobIndex:     int(conf.JobID),
			PeerIndex:    w,
			PeersTotal:   conf.WorkersPerServer,
			ServerIndex:  conf.Servers.ServerIndex,
			ServersTotal: conf.Servers.ServersTotal,
		}
		b := dataflow.NewBuilder(dconf, w, registry)
		stream, err := build(b, id)
		if err != nil {
			cancel()
			return nil, joberr.NewBuildJobError(err)
		}

		rootClosed := abool.New()
		hasSink := stream != nil
		if hasSink {
			dataflow.SinkInto(stream, fmt.Sprintf("result-sink-%d", w),
				func(t tag.Tag, items []O) {
					for _, item := range items {
						select {
						case rs.items <- Item[O]{Tag: t, Value: item}:
							metrics.JobResultsTotal.WithLabelValues(conf.JobName).Inc()
						case <-ctx.Done():
							return
						}
					}
				},
				func(t tag.Tag) {
					if t == tag.Root {
						rootClosed.Set()
					}
				},
			)
		}

		plans[w] = plan{
			id:         id,
			bus:        event.NewBus(eventBusPartitions, eventBusQueueSize),
			ops:        b.Operators(),
			rootClosed: rootClosed,
			hasSink:    hasSink,
		}
	}

	rs.cancelFn = func() {
		for _, p := range plans {
			for _, op := range p.ops {
				op.OnCancel(tag.Root)
			}
		}
		cancel()
	}

	var deadline time.Duration
	if conf.TimeLimitMs > 0 {
		deadline = time.Duration(conf.TimeLimitMs) * time.Millisecond
	}

	pool := worker.NewPool(log)
	errCh := make(chan error, conf.WorkersPerServer)

	for _, p := range plans {
		p := p
		// A worker with no result sink (build returned nil for it, e.g.
		// it isn't Aggregate's target) has no rootClosed signal to wait
		// on; fall back to the scheduler's own idle-streak heuristic,
		// which is valid here since such a worker has no sink-shaped
		// completion condition of its own to report (spec.md §4.8).
		isDone := p.rootClosed.IsSet
		if !p.hasSink {
			isDone = nil
		}
		metrics.ActiveWorkers.WithLabelValues(conf.JobName).Inc()
		pool.Spawn(ctx, p.id, p.bus, p.ops, func(ctx context.Context, id worker.Id, sched *scheduler.Scheduler) error {
			defer metrics.ActiveWorkers.WithLabelValues(conf.JobName).Dec()
			err := sched.Run(ctx, deadline, isDone)
			errCh <- err
			return err
		})
	}

	go func() {
		pool.Wait()
		close(errCh)
		var combined error
		for e := range errCh {
			combined = joberr.Append(combined, e)
		}
		if combined != nil {
			rs.err.Store(combined)
		}
		close(rs.items)
		close(rs.done)
	}()

	return rs, nil
}
