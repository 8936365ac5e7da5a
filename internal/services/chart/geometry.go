// Package chart turns a market series into axis-annotated drawing geometry
// and paints it onto SVG or PNG surfaces.
package chart

import (
	"math"
	"time"

	"github.com/bobmcallan/marketview/internal/models"
)

const (
	MinWidth    = 320
	MinHeight   = 240
	TickCount   = 6
	LineWidth   = 2
	FontSize    = 11
	tickSize    = 6
	tickPadding = 3
)

// Margins around the inner plot area, in pixels.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DefaultMargins leave room for the value axis on the left and time axis below.
var DefaultMargins = Margins{Top: 16, Right: 24, Bottom: 28, Left: 56}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Segment is a straight line between two points.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// TextAnchor aligns a label horizontally around its position.
type TextAnchor string

const (
	AnchorMiddle TextAnchor = "middle"
	AnchorEnd    TextAnchor = "end"
)

// Tick is one axis tick: its mark and its label.
type Tick struct {
	Value   float64    `json:"value"`
	Label   string     `json:"label"`
	Mark    Segment    `json:"mark"`
	LabelAt Point      `json:"label_at"`
	Anchor  TextAnchor `json:"anchor"`
}

// Axis is a domain line plus its ticks.
type Axis struct {
	Domain Segment `json:"domain"`
	Ticks  []Tick  `json:"ticks"`
}

// Style carries the resolved colors and sizes for painting.
type Style struct {
	Background string  `json:"background"`
	Grid       string  `json:"grid"`
	Line       string  `json:"line"`
	AxisLine   string  `json:"axis_line"`
	TickLine   string  `json:"tick_line"`
	Text       string  `json:"text"`
	LineWidth  float64 `json:"line_width"`
	FontSize   float64 `json:"font_size"`
}

// Geometry is the complete drawable output for one render. All coordinates are
// absolute pixels on a Width x Height surface. An Empty geometry paints nothing.
type Geometry struct {
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Empty      bool          `json:"empty"`
	Inner      Rect          `json:"inner"`
	Background Rect          `json:"background"`
	XDomain    [2]time.Time  `json:"x_domain"`
	YDomain    [2]float64    `json:"y_domain"`
	Gridlines  []Segment     `json:"gridlines"`
	Path       []PathCommand `json:"path"`
	XAxis      Axis          `json:"x_axis"`
	YAxis      Axis          `json:"y_axis"`
	Style      Style         `json:"style"`
}

// EffectiveSize applies the minimum surface bounds to a container size.
func EffectiveSize(width, height float64) (float64, float64) {
	w, h := math.Floor(width), math.Floor(height)
	if !(w >= MinWidth) {
		w = MinWidth
	}
	if !(h >= MinHeight) {
		h = MinHeight
	}
	return w, h
}

// Compute derives scales, ticks, gridlines and the line path for series.
// It has no side effects; the result is painted by a Surface.
func Compute(series models.Series, accent string, tokens models.ThemeTokens, width, height float64) Geometry {
	w, h := EffectiveSize(width, height)
	m := DefaultMargins
	inner := Rect{
		X:      m.Left,
		Y:      m.Top,
		Width:  math.Max(1, w-m.Left-m.Right),
		Height: math.Max(1, h-m.Top-m.Bottom),
	}

	g := Geometry{
		Width:      w,
		Height:     h,
		Inner:      inner,
		Background: Rect{Width: w, Height: h},
		Style: Style{
			Background: tokens.ChartBg,
			Grid:       tokens.GridColor,
			Line:       accent,
			AxisLine:   tokens.BorderDark,
			TickLine:   tokens.BorderMid,
			Text:       tokens.Muted,
			LineWidth:  LineWidth,
			FontSize:   FontSize,
		},
	}

	xMin, xMax, yMin, yMax, ok := extent(series)
	if !ok {
		g.Empty = true
		return g
	}

	y0, y1 := paddedExtent(yMin, yMax)
	y0, y1 = niceDomain(y0, y1, 10)
	g.XDomain = [2]time.Time{xMin, xMax}
	g.YDomain = [2]float64{y0, y1}

	x := newTimeScale(xMin, xMax, inner.X, inner.X+inner.Width)
	y := newLinearScale(y0, y1, inner.Y+inner.Height, inner.Y)

	yTicks := linearTicks(y0, y1, TickCount)
	for _, v := range yTicks {
		py := y.Map(v)
		g.Gridlines = append(g.Gridlines, Segment{
			From: Point{inner.X, py},
			To:   Point{inner.X + inner.Width, py},
		})
	}

	pts := make([]Point, len(series))
	for i, p := range series {
		py := math.NaN()
		if isFinite(p.Value) {
			py = y.Map(p.Value)
		}
		pts[i] = Point{X: x.Map(p.Timestamp), Y: py}
	}
	g.Path = monotonePath(pts)

	bottom := inner.Y + inner.Height
	g.XAxis.Domain = Segment{From: Point{inner.X, bottom}, To: Point{inner.X + inner.Width, bottom}}
	for _, t := range timeTicks(xMin, xMax, TickCount) {
		px := x.Map(t)
		g.XAxis.Ticks = append(g.XAxis.Ticks, Tick{
			Value:   float64(t.UnixMilli()),
			Label:   FormatTimeTick(t),
			Mark:    Segment{From: Point{px, bottom}, To: Point{px, bottom + tickSize}},
			LabelAt: Point{px, bottom + tickSize + tickPadding + FontSize*0.71},
			Anchor:  AnchorMiddle,
		})
	}

	g.YAxis.Domain = Segment{From: Point{inner.X, inner.Y}, To: Point{inner.X, bottom}}
	for _, v := range yTicks {
		py := y.Map(v)
		g.YAxis.Ticks = append(g.YAxis.Ticks, Tick{
			Value:   v,
			Label:   FormatCurrency(v),
			Mark:    Segment{From: Point{inner.X - tickSize, py}, To: Point{inner.X, py}},
			LabelAt: Point{inner.X - tickSize - tickPadding, py + FontSize*0.32},
			Anchor:  AnchorEnd,
		})
	}

	return g
}

// extent returns the time and value bounds over finite points.
func extent(series models.Series) (xMin, xMax time.Time, yMin, yMax float64, ok bool) {
	yMin, yMax = math.Inf(1), math.Inf(-1)
	for _, p := range series {
		if !isFinite(p.Value) || p.Timestamp.IsZero() {
			continue
		}
		if !ok || p.Timestamp.Before(xMin) {
			xMin = p.Timestamp
		}
		if !ok || p.Timestamp.After(xMax) {
			xMax = p.Timestamp
		}
		yMin = math.Min(yMin, p.Value)
		yMax = math.Max(yMax, p.Value)
		ok = true
	}
	return xMin, xMax, yMin, yMax, ok
}
