package neat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeSizeAndEmpty(t *testing.T) {
	r := Range[NetworkIndex]{Begin: 3, End: 7}
	require.Equal(t, NetworkIndex(4), r.Size())
	require.False(t, r.Empty())
	require.True(t, Range[NetworkIndex]{Begin: 5, End: 5}.Empty())
	require.True(t, r.Contains(3))
	require.True(t, r.Contains(6))
	require.False(t, r.Contains(7))
}

func TestSpanProjectsSubslice(t *testing.T) {
	data := []int{10, 20, 30, 40, 50}
	got := Span(Range[int]{Begin: 1, End: 4}, data)
	require.Equal(t, []int{20, 30, 40}, got)
}

func TestBalancedSegmentsCoverWholeRangeExactlyOnce(t *testing.T) {
	r := Range[NetworkIndex]{Begin: 0, End: 17}
	segs := balancedSegments(r, 5)

	var total NetworkIndex
	prev := r.Begin
	for _, s := range segs {
		require.Equal(t, prev, s.Begin)
		require.False(t, s.Empty())
		total += s.Size()
		prev = s.End
	}
	require.Equal(t, r.End, prev)
	require.Equal(t, r.Size(), total)
}

func TestBalancedSegmentsOmitsEmptySegments(t *testing.T) {
	segs := balancedSegments(Range[NetworkIndex]{Begin: 0, End: 2}, 8)
	require.Len(t, segs, 2)
}

func TestBalancedSegmentsHandlesZeroSizeRange(t *testing.T) {
	segs := balancedSegments(Range[NetworkIndex]{Begin: 0, End: 0}, 4)
	require.Empty(t, segs)
}

func TestCalcPortion(t *testing.T) {
	require.Equal(t, 6, calcPortion(10, 0.6))
	require.Equal(t, 1, calcPortion(10, 0.04)) // rounds to 0 but floored up to 1 worker
	require.Equal(t, 0, calcPortion(0, 0.5))
	require.Equal(t, 10, calcPortion(10, 1.0))
}
