package databatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightUnionAndContains(t *testing.T) {
	w := SingleWeight(0).Union(SingleWeight(2))
	require.True(t, w.Contains(0))
	require.True(t, w.Contains(2))
	require.False(t, w.Contains(1))
	require.Equal(t, 2, w.Count())
}

func TestWeightAllAbsorbs(t *testing.T) {
	w := SingleWeight(0).Union(AllWeight())
	require.True(t, w.IsAll())
	require.True(t, w.Contains(63))
}

func TestWeightCoversAll(t *testing.T) {
	w := SingleWeight(0).Union(SingleWeight(1)).Union(SingleWeight(2))
	require.True(t, w.CoversAll(3))
	require.False(t, w.CoversAll(4))
	require.True(t, AllWeight().CoversAll(1000))
}

func TestEmptyWeightCoversNothing(t *testing.T) {
	w := EmptyWeight()
	require.False(t, w.CoversAll(1))
	require.Equal(t, 0, w.Count())
}
