package channel

import (
	"sync"

	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// Pipeline is the intra-thread single-producer single-consumer channel
// kind (spec.md §4.3): "No serialization" because both ends live on the
// same worker. Backed by a single fixed-capacity Go channel sized to
// batch_capacity, following the teacher's intra-pipeline buffered
// channel pattern in internal/pipeline/pipeline.go.
type Pipeline[T any] struct {
	info Info
	buf  chan *databatch.MicroBatch[T]

	mu        sync.Mutex
	cancelled []tag.Tag
}

// NewPipeline creates a Pipeline channel with the given buffered
// capacity (spec.md's batch_capacity).
func NewPipeline[T any](info Info, capacity int) *Pipeline[T] {
	if capacity < 1 {
		capacity = 1
	}
	info.Kind = KindPipeline
	return &Pipeline[T]{info: info, buf: make(chan *databatch.MicroBatch[T], capacity)}
}

func (p *Pipeline[T]) Info() Info { return p.info }

func (p *Pipeline[T]) Push(batch *databatch.MicroBatch[T]) (PushResult, error) {
	if p.isCancelled(batch.Tag) {
		batch.Discarded = true
		batch.Release()
		return Pushed, nil
	}
	select {
	case p.buf <- batch:
		return Pushed, nil
	default:
		return WouldBlock, nil
	}
}

func (p *Pipeline[T]) TryPull() (*databatch.MicroBatch[T], error) {
	for {
		select {
		case b := <-p.buf:
			if p.isCancelled(b.Tag) {
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

func (p *Pipeline[T]) Cancel(t tag.Tag) {
	p.mu.Lock()
	p.cancelled = append(p.cancelled, t)
	p.mu.Unlock()
}

func (p *Pipeline[T]) isCancelled(t tag.Tag) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cancelled {
		if t.CoveredBy(c) {
			return true
		}
	}
	return false
}
