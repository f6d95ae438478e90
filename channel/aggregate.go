package channel

import (
	"sync"

	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// Aggregate routes every source's pushes to a single fixed target worker
// (spec.md §4.3's Aggregate(t)). Used for all-to-one reductions such as
// count/fold's final merge.
type Aggregate[T any] struct {
	info Info
	out  chan *databatch.MicroBatch[T]

	mu        sync.Mutex
	cancelled []tag.Tag
}

func NewAggregate[T any](info Info, capacity int) *Aggregate[T] {
	info.Kind = KindAggregate
	return &Aggregate[T]{info: info, out: make(chan *databatch.MicroBatch[T], capacity)}
}

func (a *Aggregate[T]) Info() Info { return a.info }

func (a *Aggregate[T]) Push(batch *databatch.MicroBatch[T]) (PushResult, error) {
	if a.isCancelled(batch.Tag) {
		batch.Discarded = true
		batch.Release()
		return Pushed, nil
	}
	select {
	case a.out <- batch:
		return Pushed, nil
	default:
		return WouldBlock, nil
	}
}

func (a *Aggregate[T]) TryPull() (*databatch.MicroBatch[T], error) {
	for {
		select {
		case v := <-a.out:
			if a.isCancelled(v.Tag) {
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

func (a *Aggregate[T]) Cancel(t tag.Tag) {
	a.mu.Lock()
	a.cancelled = append(a.cancelled, t)
	a.mu.Unlock()
}

func (a *Aggregate[T]) isCancelled(t tag.Tag) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.cancelled {
		if t.CoveredBy(c) {
			return true
		}
	}
	return false
}
