package channel

import (
	"sync"

	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// Broadcast clones every pushed batch's read buffer to each target peer
// (spec.md §4.3). Cloning is a Share(), never a deep copy.
type Broadcast[T any] struct {
	info Info
	out  []chan *databatch.MicroBatch[T]

	mu        sync.Mutex
	cancelled []tag.Tag
}

func NewBroadcast[T any](info Info, capacity int) *Broadcast[T] {
	info.Kind = KindBroadcast
	b := &Broadcast[T]{info: info, out: make([]chan *databatch.MicroBatch[T], info.TargetPeers)}
	for i := range b.out {
		b.out[i] = make(chan *databatch.MicroBatch[T], capacity)
	}
	return b
}

func (b *Broadcast[T]) Info() Info { return b.info }

func (b *Broadcast[T]) Push(batch *databatch.MicroBatch[T]) (PushResult, error) {
	if b.isCancelled(batch.Tag) {
		batch.Discarded = true
		batch.Release()
		return Pushed, nil
	}

	for _, out := range b.out {
		if len(out) >= cap(out) {
			return WouldBlock, nil
		}
	}
	for _, out := range b.out {
		out <- batch.Share()
	}
	batch.Release()
	return Pushed, nil
}

func (b *Broadcast[T]) TryPullFor(target int) (*databatch.MicroBatch[T], error) {
	for {
		select {
		case v := <-b.out[target]:
			if b.isCancelled(v.Tag) {
				v.Discarded = true
				v.Release()
				continue
			}
			return v, nil
		default:
			return nil, nil
		}
	}
}

func (b *Broadcast[T]) Cancel(t tag.Tag) {
	b.mu.Lock()
	b.cancelled = append(b.cancelled, t)
	b.mu.Unlock()
}

func (b *Broadcast[T]) isCancelled(t tag.Tag) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.cancelled {
		if t.CoveredBy(c) {
			return true
		}
	}
	return false
}

type broadcastPullEndpoint[T any] struct {
	b      *Broadcast[T]
	target int
}

func (p *broadcastPullEndpoint[T]) TryPull() (*databatch.MicroBatch[T], error) {
	return p.b.TryPullFor(p.target)
}

func (b *Broadcast[T]) PullEndpoint(target int) Pull[T] {
	return &broadcastPullEndpoint[T]{b: b, target: target}
}
