package chart

import (
	"fmt"
	"sync"

	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/models"
)

// Renderer computes geometry and repaints a surface. Calls are serialized and
// the most recent call always determines the surface contents.
type Renderer struct {
	surface Surface
	logger  *common.Logger

	mu   sync.Mutex
	last Geometry
}

// NewRenderer creates a renderer that paints onto surface
func NewRenderer(surface Surface, logger *common.Logger) *Renderer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Renderer{surface: surface, logger: logger}
}

// Render clears the surface and draws series. An empty series leaves the
// surface cleared and is not an error.
func (r *Renderer) Render(series models.Series, accent string, tokens models.ThemeTokens, width, height float64) (Geometry, error) {
	g := Compute(series, accent, tokens, width, height)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.surface.Clear(int(g.Width), int(g.Height)); err != nil {
		return g, fmt.Errorf("clear surface: %w", err)
	}
	r.last = g
	if g.Empty {
		r.logger.Debug().Float64("width", g.Width).Float64("height", g.Height).Msg("Chart cleared")
		return g, nil
	}
	if err := r.surface.Paint(g); err != nil {
		return g, fmt.Errorf("paint surface: %w", err)
	}

	r.logger.Debug().
		Int("points", len(series)).
		Int("gridlines", len(g.Gridlines)).
		Float64("width", g.Width).
		Float64("height", g.Height).
		Msg("Chart rendered")
	return g, nil
}

// Last returns the geometry of the most recent render
func (r *Renderer) Last() Geometry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// RenderImage draws series once onto a fresh surface of the given format.
func RenderImage(format Format, series models.Series, accent string, tokens models.ThemeTokens, width, height float64) ([]byte, error) {
	surface, err := NewImageSurface(format)
	if err != nil {
		return nil, err
	}
	if _, err := NewRenderer(surface, nil).Render(series, accent, tokens, width, height); err != nil {
		return nil, err
	}
	return surface.Bytes(), nil
}
