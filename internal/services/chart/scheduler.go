package chart

import (
	"slices"
	"sync"
	"time"

	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/models"
)

// DefaultRedrawDelay is the quiet period before a requested redraw runs.
const DefaultRedrawDelay = 50 * time.Millisecond

// Frame is one completed render delivered to subscribers.
type Frame struct {
	Seq      uint64    `json:"seq"`
	Geometry Geometry  `json:"geometry"`
	Theme    string    `json:"theme"`
	Rendered time.Time `json:"rendered"`
}

// Scheduler is a trailing-edge render queue. State, theme and size changes
// each request a redraw; requests arriving within the delay coalesce into
// one render using the latest inputs.
type Scheduler struct {
	renderer *Renderer
	delay    time.Duration
	logger   *common.Logger

	mu      sync.Mutex
	series  models.Series
	accent  string
	theme   models.Theme
	width   float64
	height  float64
	timer   *time.Timer
	pending bool
	closed  bool
	last    *Frame

	renderMu sync.Mutex
	seq      uint64

	subsMu  sync.Mutex
	subs    map[int]func(Frame)
	nextSub int
}

// NewScheduler creates a scheduler for renderer with an initial surface size.
func NewScheduler(renderer *Renderer, delay time.Duration, width, height float64, logger *common.Logger) *Scheduler {
	if delay <= 0 {
		delay = DefaultRedrawDelay
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Scheduler{
		renderer: renderer,
		delay:    delay,
		logger:   logger,
		series:   models.Series{},
		accent:   models.DefaultAccentColor,
		theme:    models.DefaultTheme,
		width:    width,
		height:   height,
		subs:     make(map[int]func(Frame)),
	}
}

// SetState takes the series and accent color from a store snapshot.
func (s *Scheduler) SetState(state models.SelectionState) {
	s.SetData(state.Series, state.AccentColor())
}

// SetData replaces the series and accent color.
func (s *Scheduler) SetData(series models.Series, accent string) {
	s.mu.Lock()
	s.series = series.Clone()
	s.accent = accent
	s.requestLocked()
	s.mu.Unlock()
}

// SetTheme switches the palette.
func (s *Scheduler) SetTheme(theme models.Theme) {
	s.mu.Lock()
	s.theme = theme
	s.requestLocked()
	s.mu.Unlock()
}

// SetSize updates the container size without touching the data.
func (s *Scheduler) SetSize(width, height float64) {
	s.mu.Lock()
	s.width, s.height = width, height
	s.requestLocked()
	s.mu.Unlock()
}

// Size returns the last container size
func (s *Scheduler) Size() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Request schedules a redraw with the current inputs.
func (s *Scheduler) Request() {
	s.mu.Lock()
	s.requestLocked()
	s.mu.Unlock()
}

func (s *Scheduler) requestLocked() {
	if s.closed {
		return
	}
	s.pending = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
		return
	}
	s.timer.Reset(s.delay)
}

func (s *Scheduler) fire() {
	s.Flush()
}

// Flush runs a pending redraw immediately. It reports whether a render ran.
func (s *Scheduler) Flush() bool {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	s.mu.Lock()
	if !s.pending || s.closed {
		s.mu.Unlock()
		return false
	}
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
	series, accent, theme := s.series, s.accent, s.theme
	width, height := s.width, s.height
	s.mu.Unlock()

	g, err := s.renderer.Render(series, accent, models.ThemeTokensFor(theme), width, height)
	if err != nil {
		s.logger.Error().Err(err).Msg("Chart render failed")
		return false
	}

	s.seq++
	frame := Frame{Seq: s.seq, Geometry: g, Theme: string(theme), Rendered: time.Now().UTC()}

	s.mu.Lock()
	s.last = &frame
	s.mu.Unlock()

	for _, fn := range s.subscribers() {
		fn(frame)
	}
	return true
}

// Renders returns how many frames have been produced
func (s *Scheduler) Renders() uint64 {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return s.seq
}

// Last returns the most recent frame, if any
func (s *Scheduler) Last() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Frame{}, false
	}
	return *s.last, true
}

// Subscribe registers fn for completed frames. The returned function removes it.
func (s *Scheduler) Subscribe(fn func(Frame)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Scheduler) subscribers() []func(Frame) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Frame), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

// Close stops the timer and drops pending work
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
}
