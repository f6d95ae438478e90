package channel

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/serialx/hashring"

	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// KeyFunc extracts the routing key spec.md §4.3 calls `h(item)` for an
// Exchange channel.
type KeyFunc[T any] func(item T) uint64

// Exchange is the hash-routed channel kind (spec.md §4.3): the pusher
// buffers per target and flushes a target's buffer once it reaches
// batch_size. Target selection is delegated to a consistent-hash ring
// over the target peer indices rather than the spec's literal `h(item)
// mod peers`, so that adding or removing target peers mid-job (a
// scenario the core's channel layer must tolerate even though no single
// job changes its peer count) reshuffles only the minimal fraction of
// keys — the same property the pack's ring library is used for
// elsewhere.
type Exchange[T any] struct {
	info Info
	key  KeyFunc[T]

	ring *hashring.HashRing
	node []string // index -> ring node name, precomputed once

	capacity int
	mu       sync.Mutex
	pending  map[int]*databatch.WriteBuffer[T]
	pool     *databatch.BufferPool[T]
	outbox   map[int]chan *databatch.MicroBatch[T]

	cancelled []tag.Tag

	// resume tracks how far Push got through the in-flight batch the
	// last time it returned WouldBlock, so a retry with the same batch
	// picks up where it stopped instead of re-integrating items already
	// buffered into e.pending (spec.md §3's exclusive-ownership
	// contract: a WouldBlock push leaves the batch owned by the caller
	// for retry, so Push itself must never act on the same item twice).
	resume *exchangeResume[T]
}

// exchangeResume records Push's progress through one batch across a
// WouldBlock/retry boundary. stage identifies which phase to resume:
// 0 = the main per-item routing loop, 1 = flushing remaining pending
// buffers at end-of-scope, 2 = broadcasting the end-of-scope marker.
type exchangeResume[T any] struct {
	batch *databatch.MicroBatch[T]
	stage int
	idx   int
}

// NewExchange creates an Exchange channel with one outbox per target
// peer, each holding up to capacity batches; a target's pending buffer
// is flushed once it holds capacity items. dataflow.Repartition passes
// batch_size as capacity.
func NewExchange[T any](info Info, pool *databatch.BufferPool[T], key KeyFunc[T], capacity int) *Exchange[T] {
	info.Kind = KindExchange
	nodes := make([]string, info.TargetPeers)
	for i := range nodes {
		nodes[i] = strconv.Itoa(i)
	}
	e := &Exchange[T]{
		info:     info,
		key:      key,
		ring:     hashring.New(nodes),
		node:     nodes,
		capacity: capacity,
		pending:  make(map[int]*databatch.WriteBuffer[T]),
		pool:     pool,
		outbox:   make(map[int]chan *databatch.MicroBatch[T]),
	}
	for i := 0; i < info.TargetPeers; i++ {
		e.outbox[i] = make(chan *databatch.MicroBatch[T], capacity)
	}
	return e
}

func (e *Exchange[T]) Info() Info { return e.info }

// targetFor resolves the ring node for an item's routing key back to a
// peer index.
func (e *Exchange[T]) targetFor(item T) int {
	node, ok := e.ring.GetNode(strconv.FormatUint(e.key(item), 10))
	if !ok {
		return 0
	}
	idx, err := strconv.Atoi(node)
	if err != nil {
		return 0
	}
	return idx
}

// Push fans batch's items out to their per-target pending buffers,
// flushing any that reach batch_size. At end-of-scope, remaining
// pending buffers are flushed and an EndOfScope marker is broadcast to
// every target's outbox, since every target peer is an expected source
// of truth for that scope's completion. A batch may carry the
// end-of-scope marker with no data of its own; the loops below
// naturally no-op over an empty item set in that case.
//
// Push commits items to e.pending as it goes rather than staging the
// whole batch atomically, so a WouldBlock partway through must not be
// retried from item 0 — e.resume records exactly where to pick back up
// (see exchangeResume).
func (e *Exchange[T]) Push(batch *databatch.MicroBatch[T]) (PushResult, error) {
	if e.isCancelled(batch.Tag) {
		batch.Discarded = true
		batch.Release()
		return Pushed, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stage, idx := 0, 0
	if e.resume != nil && e.resume.batch == batch {
		stage, idx = e.resume.stage, e.resume.idx
	}

	items := batch.Data.Iter()
	if stage == 0 {
		for i := idx; i < len(items); i++ {
			t := e.targetFor(items[i])
			wb, ok := e.pending[t]
			if ok && wb.Len() >= wb.Cap() {
				// A flush that failed earlier left this buffer full.
				if err := e.flushLocked(t, batch.Tag, batch.SourceWorker); err != nil {
					e.resume = &exchangeResume[T]{batch: batch, stage: 0, idx: i}
					return WouldBlock, nil
				}
				ok = false
			}
			if !ok {
				wb = e.pool.Get()
				e.pending[t] = wb
			}
			wb.Push(items[i])
			if wb.Len() >= e.capacity {
				if err := e.flushLocked(t, batch.Tag, batch.SourceWorker); err != nil {
					e.resume = &exchangeResume[T]{batch: batch, stage: 0, idx: i + 1}
					return WouldBlock, nil
				}
			}
		}
		stage, idx = 1, 0
	}

	if !batch.IsEnd() {
		e.resume = nil
		batch.Release()
		return Pushed, nil
	}

	if stage == 1 {
		for i := idx; i < e.info.TargetPeers; i++ {
			if _, ok := e.pending[i]; ok {
				if err := e.flushLocked(i, batch.Tag, batch.SourceWorker); err != nil {
					e.resume = &exchangeResume[T]{batch: batch, stage: 1, idx: i}
					return WouldBlock, nil
				}
			}
		}
		stage, idx = 2, 0
	}

	for i := idx; i < e.info.TargetPeers; i++ {
		end := *batch.End
		eob := &databatch.MicroBatch[T]{Tag: batch.Tag, SourceWorker: batch.SourceWorker, Seq: batch.Seq, End: &end}
		select {
		case e.outbox[i] <- eob:
		default:
			e.resume = &exchangeResume[T]{batch: batch, stage: 2, idx: i}
			return WouldBlock, nil
		}
	}

	e.resume = nil
	batch.Release()
	return Pushed, nil
}

// flushLocked finalizes the pending write buffer for target and enqueues
// it onto that target's outbox. It reports an error (mapped to
// WouldBlock by the caller) if the outbox is saturated, leaving the
// pending buffer in place so a later flush attempt can retry.
func (e *Exchange[T]) flushLocked(target int, t tag.Tag, source databatch.WorkerIndex) error {
	out := e.outbox[target]
	if len(out) >= cap(out) {
		return fmt.Errorf("channel: exchange outbox for target %d full", target)
	}
	wb := e.pending[target]
	delete(e.pending, target)
	out <- &databatch.MicroBatch[T]{Tag: t, SourceWorker: source, Data: wb.Finalize()}
	return nil
}

// TryPullFor returns the next ready batch for a given target peer. The
// generic Pull interface is per-worker, so job wiring binds one
// *exchangePullEndpoint per target index to this method.
func (e *Exchange[T]) TryPullFor(target int) (*databatch.MicroBatch[T], error) {
	for {
		select {
		case b := <-e.outbox[target]:
			if e.isCancelled(b.Tag) {
				b.Discarded = true
				b.Release()
				continue
			}
			return b, nil
		default:
			return nil, nil
		}
	}
}

func (e *Exchange[T]) Cancel(t tag.Tag) {
	e.mu.Lock()
	e.cancelled = append(e.cancelled, t)
	e.mu.Unlock()
}

func (e *Exchange[T]) isCancelled(t tag.Tag) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.cancelled {
		if t.CoveredBy(c) {
			return true
		}
	}
	return false
}

// exchangePullEndpoint binds Exchange.TryPullFor to a fixed target index so it
// satisfies the Pull[T] interface for that one peer.
type exchangePullEndpoint[T any] struct {
	ex     *Exchange[T]
	target int
}

func (p *exchangePullEndpoint[T]) TryPull() (*databatch.MicroBatch[T], error) {
	return p.ex.TryPullFor(p.target)
}

// PullEndpoint returns the Pull[T] for one target peer of this
// exchange.
func (e *Exchange[T]) PullEndpoint(target int) Pull[T] {
	if target < 0 || target >= e.info.TargetPeers {
		panic(fmt.Sprintf("channel: exchange pull target %d out of range", target))
	}
	return &exchangePullEndpoint[T]{ex: e, target: target}
}
