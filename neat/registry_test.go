package neat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInnovationRegistryAssignsSameNumberToSamePair(t *testing.T) {
	r := NewInnovationRegistry()

	var infoA, infoB ConnectionInfo
	r.RegisterOrLookup(2, 5, &infoA)
	r.RegisterOrLookup(2, 5, &infoB)

	require.Equal(t, infoA.Innovation, infoB.Innovation)
	require.True(t, infoA.Enabled)
	require.True(t, infoB.Enabled)
}

func TestInnovationRegistryIsOrderInsensitive(t *testing.T) {
	r := NewInnovationRegistry()

	var forward, reverse ConnectionInfo
	r.RegisterOrLookup(2, 5, &forward)
	r.RegisterOrLookup(5, 2, &reverse)

	require.Equal(t, forward.Innovation, reverse.Innovation)
}

func TestInnovationRegistryAssignsDistinctNumbersToDistinctPairs(t *testing.T) {
	r := NewInnovationRegistry()

	var a, b ConnectionInfo
	r.RegisterOrLookup(0, 1, &a)
	r.RegisterOrLookup(0, 2, &b)

	require.NotEqual(t, a.Innovation, b.Innovation)
}

func TestInnovationRegistryClearDropsHistoryButKeepsCounterMonotone(t *testing.T) {
	r := NewInnovationRegistry()

	var first, second ConnectionInfo
	r.RegisterOrLookup(0, 1, &first)
	r.RegisterOrLookup(2, 3, &second)
	require.Equal(t, InnovationNumber(0), first.Innovation)
	require.Equal(t, InnovationNumber(1), second.Innovation)

	r.Clear()

	var reRegistered, fresh ConnectionInfo
	r.RegisterOrLookup(0, 1, &reRegistered)
	r.RegisterOrLookup(9, 10, &fresh)

	require.Equal(t, InnovationNumber(2), reRegistered.Innovation, "counter must stay monotone across Clear, never reissuing a retired number")
	require.Equal(t, InnovationNumber(3), fresh.Innovation)
}

func TestInnovationRegistryMonotonicAcrossManyPairs(t *testing.T) {
	r := NewInnovationRegistry()

	seen := make(map[InnovationNumber]nodePair)
	for i := NodeIndex(0); i < 20; i++ {
		var info ConnectionInfo
		r.RegisterOrLookup(i, i+100, &info)
		if existing, ok := seen[info.Innovation]; ok {
			t.Fatalf("innovation %d reused for %v and {%d,%d}", info.Innovation, existing, i, i+100)
		}
		seen[info.Innovation] = makeNodePair(i, i+100)
	}
	require.Len(t, seen, 20)
}
