package event

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/tevino/abool"
	"go.uber.org/atomic"
)

// Bus is the per-worker event bus. Its shape is grounded on the
// teacher's partitioned in-memory event bus (hash-partitioned queues,
// atomic publish/process counters, CAS-guarded Close): events are
// bucketed by a hash of (ChannelID, Tag) into one of several
// non-blocking queues so that concurrent producers — several channels'
// push/pull wrappers firing in the same scheduler tick, or cross-worker
// IPC readers delivering remote EndOfScope/Cancel — never contend on a
// single channel.
//
// Unlike the teacher, which runs one long-lived consumer goroutine per
// partition, Bus has exactly one consumer: the worker's scheduler, which
// calls Drain once per tick (spec.md §4.8 step 1) and dispatches
// synchronously on its own goroutine. That is what "single-threaded
// cooperative within a worker" (spec.md §5) requires: handlers must
// never run concurrently with operator firings.
type Bus struct {
	partitions []chan Event
	closed     *abool.AtomicBool

	subscribers map[int]Handler
	mu          sync.RWMutex

	published atomic.Int64
	processed atomic.Int64
}

// Stats reports bus throughput counters, mirroring the teacher's
// eventbus.Stats shape.
type Stats struct {
	Published      int64
	Processed      int64
	PartitionCount int
	QueuedCount    []int
}

// NewBus creates a bus with the given number of partitions, each with
// queueSize buffered capacity.
func NewBus(partitionCount, queueSize int) *Bus {
	if partitionCount < 1 {
		partitionCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	b := &Bus{
		partitions:  make([]chan Event, partitionCount),
		closed:      abool.New(),
		subscribers: make(map[int]Handler),
	}
	for i := range b.partitions {
		b.partitions[i] = make(chan Event, queueSize)
	}
	return b
}

// Subscribe registers the handler invoked for events targeting
// operatorIndex. Registering twice for the same index replaces the
// handler.
func (b *Bus) Subscribe(operatorIndex int, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[operatorIndex] = h
}

// Publish enqueues an event onto the partition selected by hashing
// (ChannelID, Tag). It never blocks: a full partition queue is a
// building defect (the scheduler is not draining fast enough), so
// Publish returns an error rather than stalling the caller, which may be
// a network reader goroutine that must keep servicing other scopes.
func (b *Bus) Publish(e Event) error {
	if b.closed.IsSet() {
		return fmt.Errorf("event: bus is closed")
	}
	p := b.partitions[b.partitionFor(e)]
	select {
	case p <- e:
		b.published.Inc()
		return nil
	default:
		return fmt.Errorf("event: partition queue full")
	}
}

// Drain synchronously dispatches every currently-queued event across all
// partitions to its subscriber, returning the number processed. It never
// blocks waiting for new events — an empty bus returns 0 immediately, as
// the scheduler calls Drain once per tick regardless of whether anything
// is pending.
func (b *Bus) Drain() int {
	processed := 0
	for _, p := range b.partitions {
		for {
			select {
			case e := <-p:
				b.dispatch(e)
				processed++
			default:
				goto nextPartition
			}
		}
	nextPartition:
	}
	b.processed.Add(int64(processed))
	return processed
}

func (b *Bus) dispatch(e Event) {
	b.mu.RLock()
	h, ok := b.subscribers[e.Target]
	b.mu.RUnlock()
	if ok {
		h(e)
	}
}

// Close marks the bus closed; subsequent Publish calls fail. Draining
// already-queued events is still the caller's responsibility (a final
// Drain after Close flushes them).
func (b *Bus) Close() error {
	b.closed.Set()
	return nil
}

// Stats returns a snapshot of bus counters.
func (b *Bus) Stats() Stats {
	s := Stats{
		Published:      b.published.Load(),
		Processed:      b.processed.Load(),
		PartitionCount: len(b.partitions),
		QueuedCount:    make([]int, len(b.partitions)),
	}
	for i, p := range b.partitions {
		s.QueuedCount[i] = len(p)
	}
	return s
}

func (b *Bus) partitionFor(e Event) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%s", e.ChannelID, e.Tag.String())
	return int(h.Sum32()) % len(b.partitions)
}
