package chart

import (
	"math"
)

// PathOp is a drawing instruction kind.
type PathOp string

const (
	OpMoveTo  PathOp = "M"
	OpLineTo  PathOp = "L"
	OpCubicTo PathOp = "C"
)

// Point is a pixel coordinate on the drawing surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PathCommand is one path instruction. CubicTo carries two control points
// followed by the end point; MoveTo and LineTo carry a single point.
type PathCommand struct {
	Op     PathOp  `json:"op"`
	Points []Point `json:"points"`
}

// monotoneX builds a cubic path through pts that preserves monotonicity in y
// (Steffen's method). Consecutive points must have non-decreasing x.
type monotoneX struct {
	cmds   []PathCommand
	x0, y0 float64
	x1, y1 float64
	t0     float64
	n      int
}

func (c *monotoneX) lineStart() {
	c.x0, c.y0, c.x1, c.y1, c.t0 = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
	c.n = 0
}

func (c *monotoneX) lineEnd() {
	switch c.n {
	case 2:
		c.cmds = append(c.cmds, PathCommand{Op: OpLineTo, Points: []Point{{c.x1, c.y1}}})
	case 3:
		c.bezier(c.t0, slope2(c.x0, c.y0, c.x1, c.y1, c.t0))
	}
}

func (c *monotoneX) point(x, y float64) {
	if x == c.x1 && y == c.y1 {
		return
	}

	t1 := math.NaN()
	switch c.n {
	case 0:
		c.n = 1
		c.cmds = append(c.cmds, PathCommand{Op: OpMoveTo, Points: []Point{{x, y}}})
	case 1:
		c.n = 2
	case 2:
		c.n = 3
		t1 = slope3(c.x0, c.y0, c.x1, c.y1, x, y)
		c.bezier(slope2(c.x0, c.y0, c.x1, c.y1, t1), t1)
	default:
		t1 = slope3(c.x0, c.y0, c.x1, c.y1, x, y)
		c.bezier(c.t0, t1)
	}

	c.x0, c.x1 = c.x1, x
	c.y0, c.y1 = c.y1, y
	c.t0 = t1
}

// bezier emits the segment from (x0,y0) to (x1,y1) with tangents t0 and t1.
func (c *monotoneX) bezier(t0, t1 float64) {
	dx := (c.x1 - c.x0) / 3
	c.cmds = append(c.cmds, PathCommand{Op: OpCubicTo, Points: []Point{
		{c.x0 + dx, c.y0 + dx*t0},
		{c.x1 - dx, c.y1 - dx*t1},
		{c.x1, c.y1},
	}})
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// slope3 is the tangent at (x1,y1) given its neighbours.
func slope3(x0, y0, x1, y1, x2, y2 float64) float64 {
	h0 := x1 - x0
	h1 := x2 - x1

	d0 := h0
	if d0 == 0 {
		d0 = signedZero(h1 < 0)
	}
	d1 := h1
	if d1 == 0 {
		d1 = signedZero(h0 < 0)
	}
	s0 := (y1 - y0) / d0
	s1 := (y2 - y1) / d1
	p := (s0*h1 + s1*h0) / (h0 + h1)

	v := (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// slope2 is the one-sided tangent at an end point given the other tangent t.
func slope2(x0, y0, x1, y1, t float64) float64 {
	h := x1 - x0
	if h == 0 {
		return t
	}
	return (3*(y1-y0)/h - t) / 2
}

func signedZero(negative bool) float64 {
	if negative {
		return math.Copysign(0, -1)
	}
	return 0
}

// monotonePath draws pts as monotone cubic segments. Points with a non-finite
// coordinate split the line into separate sub-paths.
func monotonePath(pts []Point) []PathCommand {
	c := &monotoneX{}
	inLine := false
	for _, p := range pts {
		defined := isFinite(p.X) && isFinite(p.Y)
		if defined && !inLine {
			c.lineStart()
			inLine = true
		} else if !defined && inLine {
			c.lineEnd()
			inLine = false
		}
		if defined {
			c.point(p.X, p.Y)
		}
	}
	if inLine {
		c.lineEnd()
	}
	return c.cmds
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
