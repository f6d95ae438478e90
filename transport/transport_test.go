package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graphscope/pegasus-go/joberr"
	"github.com/graphscope/pegasus-go/worker"
	"github.com/stretchr/testify/require"
)

func TestLoopbackDeliversPushedFramesInOrder(t *testing.T) {
	lb := NewLoopback(4)
	w0 := worker.Id{PeerIndex: 0, PeersTotal: 2}
	w1 := worker.Id{PeerIndex: 1, PeersTotal: 2}

	c01, err := lb.Connect(w0, w1)
	require.NoError(t, err)
	c10, err := lb.Connect(w1, w0)
	require.NoError(t, err)

	require.NoError(t, c01.Push([]byte("one")))
	require.NoError(t, c01.Push([]byte("two")))

	ctx := context.Background()
	got1, err := c10.Pull(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("one"), got1)
	got2, err := c10.Pull(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("two"), got2)
}

func TestLoopbackPushReportsWouldBlockAtCapacity(t *testing.T) {
	lb := NewLoopback(1)
	w0 := worker.Id{PeerIndex: 0, PeersTotal: 2}
	w1 := worker.Id{PeerIndex: 1, PeersTotal: 2}
	conn, err := lb.Connect(w0, w1)
	require.NoError(t, err)

	require.NoError(t, conn.Push([]byte("a")))
	err = conn.Push([]byte("b"))
	require.Error(t, err)
	require.ErrorIs(t, err, joberr.ErrWouldBlock)
}

func TestLoopbackPullAfterCloseReturnsDisconnected(t *testing.T) {
	lb := NewLoopback(4)
	w0 := worker.Id{PeerIndex: 0, PeersTotal: 2}
	w1 := worker.Id{PeerIndex: 1, PeersTotal: 2}
	c01, err := lb.Connect(w0, w1)
	require.NoError(t, err)
	c10, err := lb.Connect(w1, w0)
	require.NoError(t, err)

	require.NoError(t, c01.Close())
	_, err = c10.Pull(context.Background())
	require.ErrorIs(t, err, joberr.ErrDisconnected)
}

func TestLoopbackPullHonorsContextCancellation(t *testing.T) {
	lb := NewLoopback(4)
	w0 := worker.Id{PeerIndex: 0, PeersTotal: 2}
	w1 := worker.Id{PeerIndex: 1, PeersTotal: 2}
	c10, err := lb.Connect(w1, w0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c10.Pull(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGobCodecRoundTrips(t *testing.T) {
	type payload struct {
		A int
		B string
	}
	codec := GobCodec[payload]{}
	frame, err := codec.Encode(payload{A: 7, B: "x"})
	require.NoError(t, err)
	got, err := codec.Decode(frame)
	require.NoError(t, err)
	require.Equal(t, payload{A: 7, B: "x"}, got)
}
