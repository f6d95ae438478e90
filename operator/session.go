package operator

import (
	"github.com/graphscope/pegasus-go/channel"
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// Session accumulates items for one scope and flushes full batches to
// every tee of its OutputHandle (spec.md §4.4: "A session pushes
// individual items, iterators, or whole batches").
type Session[T any] struct {
	out *OutputHandle[T]
	tag tag.Tag
	wb  *databatch.WriteBuffer[T]
	seq uint64
}

// Give buffers one item, flushing automatically once the buffer reaches
// capacity. Returns Blocked if a flush could not complete — the caller
// must stop feeding this session and return from OnReceive; a later
// scheduler tick retries via try_unblock.
func (s *Session[T]) Give(item T) (channel.PushResult, error) {
	if s.out.skip[s.tag] {
		return channel.Pushed, nil
	}
	s.wb.Push(item)
	if s.wb.Len() >= s.wb.Cap() {
		return s.Flush()
	}
	return channel.Pushed, nil
}

// GiveIterator pushes items yielded by next until it is exhausted or a
// push would-blocks, in which case next is left wherever it stopped so
// the caller can resume the same iterator on a later tick.
func (s *Session[T]) GiveIterator(next func() (T, bool)) (channel.PushResult, error) {
	for {
		item, ok := next()
		if !ok {
			return channel.Pushed, nil
		}
		res, err := s.Give(item)
		if err != nil || res == channel.WouldBlock {
			return res, err
		}
	}
}

// GiveBatch pushes an already-built batch directly, bypassing this
// session's own write buffer (used when forwarding a batch unchanged,
// e.g. filter's pass-through fast path).
func (s *Session[T]) GiveBatch(batch *databatch.MicroBatch[T]) (channel.PushResult, error) {
	if s.out.skip[s.tag] {
		batch.Discarded = true
		batch.Release()
		return channel.Pushed, nil
	}
	result := channel.Pushed
	for i, tee := range s.out.tees {
		share := batch
		if i < len(s.out.tees)-1 {
			share = batch.Share()
		}
		res, err := tee.Push(share)
		if err != nil {
			return res, err
		}
		if res == channel.WouldBlock {
			result = channel.WouldBlock
		}
	}
	if result == channel.WouldBlock {
		s.out.blocked[s.tag] = true
	} else {
		delete(s.out.blocked, s.tag)
	}
	return result, nil
}

// Flush finalizes the currently buffered items into one MicroBatch and
// pushes a share to every tee, per spec.md §4.4's Tee contract: the read
// buffer is cloned (refcounted), never deep-copied.
func (s *Session[T]) Flush() (channel.PushResult, error) {
	if s.wb.Len() == 0 {
		return channel.Pushed, nil
	}
	rb := s.wb.Finalize()
	s.seq++
	seq := s.seq

	result := channel.Pushed
	for i, tee := range s.out.tees {
		share := rb
		if i < len(s.out.tees)-1 {
			share = rb.Share()
		}
		batch := &databatch.MicroBatch[T]{Tag: s.tag, Seq: seq, Data: share}
		res, err := tee.Push(batch)
		if err != nil {
			return res, err
		}
		if res == channel.WouldBlock {
			result = channel.WouldBlock
		}
	}
	s.wb = s.out.pool.Get()
	if result == channel.WouldBlock {
		s.out.blocked[s.tag] = true
	} else {
		delete(s.out.blocked, s.tag)
	}
	return result, nil
}
