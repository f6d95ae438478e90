package tag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootIsEmpty(t *testing.T) {
	require.Equal(t, 0, Root.Len())
	_, ok := Root.Current()
	require.False(t, ok)
	require.Equal(t, "root", Root.String())
}

func TestChildParentRoundTrip(t *testing.T) {
	c := Root.Child(3).Child(7)
	require.Equal(t, 2, c.Len())
	require.Equal(t, uint32(7), c.At(1))

	p := c.Parent()
	require.Equal(t, 1, p.Len())
	require.Equal(t, uint32(3), p.At(0))
	require.Equal(t, Root, p.Parent())
}

func TestAdvanceOnlyTouchesLastCounter(t *testing.T) {
	start := Root.Child(1).Child(0)
	advanced := start.Advance()

	require.Equal(t, uint32(1), advanced.At(0))
	require.Equal(t, uint32(1), advanced.At(1))
	require.Equal(t, uint32(0), start.At(1), "Advance must not mutate the receiver")
}

func TestChildPanicsPastMaxDepth(t *testing.T) {
	deep := Root
	for i := 0; i < MaxDepth; i++ {
		deep = deep.Child(uint32(i))
	}
	require.Panics(t, func() { deep.Child(99) })
}

func TestParentOfRootPanics(t *testing.T) {
	require.Panics(t, func() { Root.Parent() })
}

func TestIsAncestorOf(t *testing.T) {
	p := Root.Child(2)
	c := p.Child(5)

	require.True(t, p.IsAncestorOf(c))
	require.False(t, c.IsAncestorOf(p))
	require.False(t, p.IsAncestorOf(p))
	require.True(t, Root.IsAncestorOf(c))
	require.False(t, Root.IsAncestorOf(Root))
}

func TestCoveredBy(t *testing.T) {
	p := Root.Child(2)
	c := p.Child(5)

	require.True(t, c.CoveredBy(p))
	require.True(t, c.CoveredBy(c))
	require.False(t, p.CoveredBy(c))
}

func TestEqualityAndHashConsistency(t *testing.T) {
	a := Root.Child(1).Child(2)
	b := Root.Child(1).Child(2)
	c := Root.Child(1).Child(3)

	require.Equal(t, a, b)
	require.Equal(t, a.HashKey(), b.HashKey())
	require.NotEqual(t, a, c)
}

func TestStringFormat(t *testing.T) {
	require.Equal(t, "1.2.3", Root.Child(1).Child(2).Child(3).String())
}
