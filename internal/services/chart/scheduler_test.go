package chart

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketview/internal/models"
)

func newTestScheduler(t *testing.T, delay time.Duration) (*Scheduler, *recordingSurface) {
	t.Helper()
	surface := &recordingSurface{}
	s := NewScheduler(NewRenderer(surface, nil), delay, 800, 400, nil)
	t.Cleanup(s.Close)
	return s, surface
}

func TestScheduler_CoalescesBursts(t *testing.T) {
	s, surface := newTestScheduler(t, time.Hour)

	for i := 0; i < 10; i++ {
		s.SetSize(800+float64(i), 400)
	}
	s.SetData(weekSeries(1, 2, 3), "#f7931a")
	s.SetTheme(models.ThemeDark)

	require.True(t, s.Flush())
	assert.False(t, s.Flush(), "nothing pending after flush")
	assert.Equal(t, uint64(1), s.Renders())

	_, painted := surface.snapshot()
	require.Len(t, painted, 1)
	assert.Equal(t, 809.0, painted[0].Width)
	assert.Equal(t, "#f7931a", painted[0].Style.Line)
	assert.Equal(t, "#121212", painted[0].Style.Background)
}

func TestScheduler_TrailingEdgeTimer(t *testing.T) {
	s, _ := newTestScheduler(t, 30*time.Millisecond)

	frames := make(chan Frame, 8)
	s.Subscribe(func(f Frame) { frames <- f })

	s.SetData(weekSeries(1, 2, 3), "#f7931a")
	s.SetSize(1024, 600)

	select {
	case f := <-frames:
		assert.Equal(t, uint64(1), f.Seq)
		assert.Equal(t, 1024.0, f.Geometry.Width)
		assert.Equal(t, "light", f.Theme)
	case <-time.After(time.Second):
		t.Fatal("no frame rendered")
	}

	select {
	case f := <-frames:
		t.Fatalf("unexpected extra frame %d", f.Seq)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_SetStateUsesAccent(t *testing.T) {
	s, _ := newTestScheduler(t, time.Hour)

	s.SetState(models.SelectionState{Series: weekSeries(5, 6)})
	require.True(t, s.Flush())
	f, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, models.DefaultAccentColor, f.Geometry.Style.Line)

	asset := models.MarketAsset{ID: "ethereum", AccentColor: "#627eea"}
	s.SetState(models.SelectionState{SelectedAsset: &asset, Series: weekSeries(5, 6)})
	require.True(t, s.Flush())
	f, _ = s.Last()
	assert.Equal(t, "#627eea", f.Geometry.Style.Line)
	assert.Equal(t, uint64(2), f.Seq)
}

func TestScheduler_Unsubscribe(t *testing.T) {
	s, _ := newTestScheduler(t, time.Hour)

	var mu sync.Mutex
	count := 0
	unsubscribe := s.Subscribe(func(Frame) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	s.Request()
	s.Flush()
	unsubscribe()
	s.Request()
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestScheduler_CloseDropsPending(t *testing.T) {
	s, surface := newTestScheduler(t, time.Hour)
	s.SetData(weekSeries(1, 2), "#f7931a")
	s.Close()

	assert.False(t, s.Flush())
	s.Request()
	assert.False(t, s.Flush())

	calls, _ := surface.snapshot()
	assert.Empty(t, calls)
	_, ok := s.Last()
	assert.False(t, ok)
}
