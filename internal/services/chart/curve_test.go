package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPoint(t *testing.T, want, got Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}

func TestMonotonePath_Peak(t *testing.T) {
	cmds := monotonePath([]Point{{0, 0}, {1, 1}, {2, 0}})
	require.Len(t, cmds, 3)

	assert.Equal(t, OpMoveTo, cmds[0].Op)
	assertPoint(t, Point{0, 0}, cmds[0].Points[0])

	assert.Equal(t, OpCubicTo, cmds[1].Op)
	assertPoint(t, Point{1.0 / 3, 0.5}, cmds[1].Points[0])
	assertPoint(t, Point{2.0 / 3, 1}, cmds[1].Points[1])
	assertPoint(t, Point{1, 1}, cmds[1].Points[2])

	assert.Equal(t, OpCubicTo, cmds[2].Op)
	assertPoint(t, Point{4.0 / 3, 1}, cmds[2].Points[0])
	assertPoint(t, Point{5.0 / 3, 0.5}, cmds[2].Points[1])
	assertPoint(t, Point{2, 0}, cmds[2].Points[2])
}

func TestMonotonePath_ShortLines(t *testing.T) {
	assert.Empty(t, monotonePath(nil))

	single := monotonePath([]Point{{5, 5}})
	require.Len(t, single, 1)
	assert.Equal(t, OpMoveTo, single[0].Op)

	two := monotonePath([]Point{{0, 0}, {10, 4}})
	require.Len(t, two, 2)
	assert.Equal(t, OpLineTo, two[1].Op)
	assertPoint(t, Point{10, 4}, two[1].Points[0])
}

func TestMonotonePath_SplitsOnUndefined(t *testing.T) {
	cmds := monotonePath([]Point{{0, 0}, {1, math.NaN()}, {2, 2}, {3, 3}})
	ops := make([]PathOp, len(cmds))
	for i, c := range cmds {
		ops[i] = c.Op
	}
	assert.Equal(t, []PathOp{OpMoveTo, OpMoveTo, OpLineTo}, ops)
}

func TestMonotonePath_IgnoresCoincidentPoints(t *testing.T) {
	cmds := monotonePath([]Point{{0, 0}, {0, 0}, {1, 1}})
	require.Len(t, cmds, 2)
	assert.Equal(t, OpLineTo, cmds[1].Op)
}

func TestMonotonePath_PassesThroughEveryPoint(t *testing.T) {
	pts := []Point{{0, 10}, {1, 12}, {2, 11}, {3, 15}, {4, 20}, {5, 18}, {6, 17}}
	cmds := monotonePath(pts)
	require.Len(t, cmds, len(pts))
	for i, c := range cmds {
		end := c.Points[len(c.Points)-1]
		assertPoint(t, pts[i], end)
	}
}

func TestMonotonePath_NoOvershootOnMonotoneData(t *testing.T) {
	pts := []Point{{0, 0}, {1, 1}, {2, 1.1}, {3, 5}, {4, 5.2}, {5, 9}}
	cmds := monotonePath(pts)

	prev := pts[0]
	for _, c := range cmds[1:] {
		require.Equal(t, OpCubicTo, c.Op)
		end := c.Points[2]
		lo, hi := math.Min(prev.Y, end.Y), math.Max(prev.Y, end.Y)
		for _, cp := range c.Points[:2] {
			assert.GreaterOrEqual(t, cp.Y, lo-1e-9)
			assert.LessOrEqual(t, cp.Y, hi+1e-9)
		}
		prev = end
	}
}
