// Package transport defines the byte-level, per-remote-worker pipe the
// core consumes from its host process (spec.md §6): an ordered, reliable
// Push<Bytes>/Pull<Bytes> contract, plus the Encode/Decode codec
// capability every type carried across an Exchange or Aggregate channel
// needs. Framing and the actual network stack are the transport
// implementation's concern, not the core's; Loopback below is the
// in-process implementation the core's own tests and demo run against.
package transport

import (
	"context"

	"github.com/graphscope/pegasus-go/worker"
)

// Conn is one ordered, reliable byte pipe from a fixed local worker to a
// fixed remote worker. Push and Pull are each called from at most one
// goroutine at a time on a given Conn — the channel push wrapper for
// Push, the worker's scheduler tick for Pull — matching spec.md §5's
// single-threaded-per-worker model.
type Conn interface {
	// Push sends one already-framed message. It does not block past
	// the transport's own backpressure; a transport that cannot accept
	// more without blocking returns a joberr.IOError wrapping
	// joberr.ErrWouldBlock rather than blocking the caller's worker
	// thread.
	Push(frame []byte) error

	// Pull returns the next frame pushed by the remote side, in the
	// order it was pushed. It returns a joberr.IOError wrapping
	// joberr.ErrDisconnected once the remote side has closed and every
	// frame it sent has been delivered.
	Pull(ctx context.Context) ([]byte, error)

	// Close releases the pipe. Pending Pulls return ErrDisconnected.
	Close() error
}

// Transport hands out the Conn for a given (local, remote) worker pair.
// A job dials one Conn per remote peer it exchanges data with; peers
// co-located on the same server may still go through Transport (a
// Loopback-backed one costs nothing extra), since the core does not
// special-case locality — only worker.Id.IsLocalTo does, for callers that
// want to skip the transport entirely for same-process peers.
type Transport interface {
	Connect(local, remote worker.Id) (Conn, error)
}
