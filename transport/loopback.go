package transport

import (
	"context"
	"sync"

	"github.com/graphscope/pegasus-go/joberr"
	"github.com/graphscope/pegasus-go/worker"
)

// pairKey orders a directed pipe by (from, to) worker peer index, since
// two Loopback Conns dialed from opposite ends of the same pair must
// resolve to the same pair of underlying queues.
type pairKey struct {
	from, to int
}

// Loopback is an in-process Transport: Push on one side's Conn becomes
// visible to Pull on the other side's Conn via a buffered queue, with no
// real network or serialization framing involved. It exists for tests,
// single-process demos, and jobs whose peers all happen to live in the
// same server process.
type Loopback struct {
	capacity int

	mu    sync.Mutex
	pipes map[pairKey]*queue
}

// NewLoopback creates an empty Loopback transport. capacity bounds each
// directional queue; a Push beyond it reports would-block rather than
// blocking the caller.
func NewLoopback(capacity int) *Loopback {
	if capacity <= 0 {
		capacity = 64
	}
	return &Loopback{capacity: capacity, pipes: make(map[pairKey]*queue)}
}

func (l *Loopback) queueFor(from, to worker.Id) *queue {
	k := pairKey{from: from.PeerIndex, to: to.PeerIndex}
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.pipes[k]
	if !ok {
		q = newQueue(l.capacity)
		l.pipes[k] = q
	}
	return q
}

// Connect returns a Conn through which local pushes frames to remote and
// pulls frames remote pushed back.
func (l *Loopback) Connect(local, remote worker.Id) (Conn, error) {
	return &loopbackConn{
		out: l.queueFor(local, remote),
		in:  l.queueFor(remote, local),
	}, nil
}

type loopbackConn struct {
	out *queue // frames this side pushes, for the remote side to pull
	in  *queue // frames the remote side pushed, for this side to pull
}

func (c *loopbackConn) Push(frame []byte) error { return c.out.push(frame) }
func (c *loopbackConn) Pull(ctx context.Context) ([]byte, error) { return c.in.pull(ctx) }
func (c *loopbackConn) Close() error {
	c.out.closeSend()
	return nil
}

// queue is a single directional, bounded, FIFO byte-frame pipe backed by
// a buffered Go channel, the same primitive channel.Pipeline uses for
// its intra-thread analogue.
type queue struct {
	ch chan []byte

	mu     sync.Mutex
	closed bool
}

func newQueue(capacity int) *queue {
	return &queue{ch: make(chan []byte, capacity)}
}

func (q *queue) push(frame []byte) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return joberr.NewIOError("loopback push", joberr.ErrDisconnected)
	}
	q.mu.Unlock()

	select {
	case q.ch <- frame:
		return nil
	default:
		return joberr.NewIOError("loopback push", joberr.ErrWouldBlock)
	}
}

func (q *queue) pull(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-q.ch:
		if !ok {
			return nil, joberr.NewIOError("loopback pull", joberr.ErrDisconnected)
		}
		return frame, nil
	case <-ctx.Done():
		return nil, joberr.NewIOError("loopback pull", ctx.Err())
	}
}

func (q *queue) closeSend() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
