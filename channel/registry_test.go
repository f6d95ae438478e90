package channel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSharesOneInstance(t *testing.T) {
	r := NewRegistry()
	calls := 0
	make1 := func() *Pipeline[int] {
		calls++
		return NewPipeline[int](Info{ID: 3}, 2)
	}

	a := GetOrCreate(r, ID(3), make1)
	b := GetOrCreate(r, ID(3), make1)

	require.Same(t, a, b)
	require.Equal(t, 1, calls)
}
