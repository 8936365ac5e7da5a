package chart

import (
	"sync"

	"github.com/bobmcallan/marketview/internal/common"
)

// sizeTarget receives container size changes.
type sizeTarget interface {
	SetSize(width, height float64)
}

// ResizeCoordinator forwards container size changes to the render queue.
// Repeated observations of the same size are ignored.
type ResizeCoordinator struct {
	target sizeTarget
	logger *common.Logger

	mu       sync.Mutex
	width    float64
	height   float64
	observed bool
	changes  uint64
}

// NewResizeCoordinator creates a coordinator that notifies target
func NewResizeCoordinator(target sizeTarget, logger *common.Logger) *ResizeCoordinator {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &ResizeCoordinator{target: target, logger: logger}
}

// Observe records a container size. It reports whether the size changed and
// a redraw was requested.
func (c *ResizeCoordinator) Observe(width, height float64) bool {
	c.mu.Lock()
	if c.observed && width == c.width && height == c.height {
		c.mu.Unlock()
		return false
	}
	c.width, c.height = width, height
	c.observed = true
	c.changes++
	c.mu.Unlock()

	c.logger.Debug().Float64("width", width).Float64("height", height).Msg("Chart container resized")
	c.target.SetSize(width, height)
	return true
}

// Size returns the last observed size
func (c *ResizeCoordinator) Size() (width, height float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height, c.observed
}

// Changes returns the number of size changes forwarded
func (c *ResizeCoordinator) Changes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changes
}
