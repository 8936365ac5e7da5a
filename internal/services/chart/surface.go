package chart

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/marketview/internal/models"
)

// Surface is a drawing target. Clear discards prior output; Paint draws g.
type Surface interface {
	Clear(width, height int) error
	Paint(g Geometry) error
}

// Format selects the image encoding of an ImageSurface.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// curveSteps is the number of line segments used per cubic segment.
const curveSteps = 12

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ImageSurface paints geometry through a go-chart renderer and keeps the
// encoded image of the most recent Clear or Paint.
type ImageSurface struct {
	format   Format
	provider gochart.RendererProvider

	mu     sync.RWMutex
	output []byte
}

// NewImageSurface creates a surface for the given format
func NewImageSurface(format Format) (*ImageSurface, error) {
	var provider gochart.RendererProvider
	switch format {
	case FormatSVG:
		provider = gochart.SVG
	case FormatPNG:
		provider = gochart.PNG
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return &ImageSurface{format: format, provider: provider}, nil
}

// Format returns the surface encoding
func (s *ImageSurface) Format() Format {
	return s.format
}

// Bytes returns a copy of the current image
func (s *ImageSurface) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]byte, len(s.output))
	copy(out, s.output)
	return out
}

// Clear replaces the output with a blank image of the given size.
func (s *ImageSurface) Clear(width, height int) error {
	r, err := s.provider(width, height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	return s.save(r)
}

// Paint draws g onto a fresh canvas. Empty geometry yields a blank image.
func (s *ImageSurface) Paint(g Geometry) error {
	width, height := int(g.Width), int(g.Height)
	r, err := s.provider(width, height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	if g.Empty {
		return s.save(r)
	}

	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}

	fillRect(r, g.Background, parseColor(g.Style.Background, drawing.ColorWhite))

	grid := parseColor(g.Style.Grid, drawing.ColorFromHex("e5e7eb"))
	for _, seg := range g.Gridlines {
		strokeSegment(r, seg, grid, 1)
	}

	line := parseColor(g.Style.Line, drawing.ColorFromHex(strings.TrimPrefix(models.DefaultAccentColor, "#")))
	strokePath(r, g.Path, line, g.Style.LineWidth)

	axis := parseColor(g.Style.AxisLine, drawing.ColorBlack)
	tickLine := parseColor(g.Style.TickLine, axis)
	text := parseColor(g.Style.Text, drawing.ColorBlack)
	for _, a := range []Axis{g.XAxis, g.YAxis} {
		strokeSegment(r, a.Domain, axis, 1)
		for _, t := range a.Ticks {
			strokeSegment(r, t.Mark, tickLine, 1)
			r.ResetStyle()
			r.SetFont(font)
			drawLabel(r, t, text, g.Style.FontSize)
		}
	}

	return s.save(r)
}

func (s *ImageSurface) save(r gochart.Renderer) error {
	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", s.format, err)
	}
	s.mu.Lock()
	s.output = buf.Bytes()
	s.mu.Unlock()
	return nil
}

func fillRect(r gochart.Renderer, rect Rect, color drawing.Color) {
	r.ResetStyle()
	r.SetFillColor(color)
	r.SetStrokeColor(drawing.ColorTransparent)
	r.SetStrokeWidth(0)
	x0, y0 := px(rect.X), px(rect.Y)
	x1, y1 := px(rect.X+rect.Width), px(rect.Y+rect.Height)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.LineTo(x0, y0)
	r.Close()
	r.Fill()
}

func strokeSegment(r gochart.Renderer, seg Segment, color drawing.Color, width float64) {
	r.ResetStyle()
	r.SetStrokeColor(color)
	r.SetStrokeWidth(width)
	r.MoveTo(px(seg.From.X), px(seg.From.Y))
	r.LineTo(px(seg.To.X), px(seg.To.Y))
	r.Stroke()
}

// strokePath draws path commands, flattening cubics into line segments.
func strokePath(r gochart.Renderer, path []PathCommand, color drawing.Color, width float64) {
	if len(path) == 0 {
		return
	}
	r.ResetStyle()
	r.SetStrokeColor(color)
	r.SetStrokeWidth(width)

	var cur Point
	for _, cmd := range path {
		switch cmd.Op {
		case OpMoveTo:
			cur = cmd.Points[0]
			r.MoveTo(px(cur.X), px(cur.Y))
		case OpLineTo:
			cur = cmd.Points[0]
			r.LineTo(px(cur.X), px(cur.Y))
		case OpCubicTo:
			c1, c2, end := cmd.Points[0], cmd.Points[1], cmd.Points[2]
			for i := 1; i <= curveSteps; i++ {
				p := cubicAt(cur, c1, c2, end, float64(i)/curveSteps)
				r.LineTo(px(p.X), px(p.Y))
			}
			cur = end
		}
	}
	r.Stroke()
}

// drawLabel writes an anchored tick label. The font must already be set.
func drawLabel(r gochart.Renderer, t Tick, color drawing.Color, size float64) {
	if t.Label == "" {
		return
	}
	r.SetFontColor(color)
	r.SetFontSize(size)

	box := r.MeasureText(t.Label)
	x := px(t.LabelAt.X)
	switch t.Anchor {
	case AnchorEnd:
		x -= box.Width()
	case AnchorMiddle:
		x -= box.Width() / 2
	}
	r.Text(t.Label, x, px(t.LabelAt.Y))
}

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func px(v float64) int {
	return int(math.Round(v))
}

// parseColor accepts #rgb or #rrggbb; anything else yields fallback.
func parseColor(css string, fallback drawing.Color) drawing.Color {
	css = strings.TrimSpace(css)
	if !hexColor.MatchString(css) {
		return fallback
	}
	hex := strings.TrimPrefix(css, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return drawing.ColorFromHex(strings.ToLower(hex))
}
