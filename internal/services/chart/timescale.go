package chart

import (
	"math"
	"sort"
	"time"
)

const (
	durationDay   = 24 * time.Hour
	durationWeek  = 7 * durationDay
	durationMonth = 30 * durationDay
	durationYear  = 365 * durationDay
)

type timeUnit int

const (
	unitSecond timeUnit = iota
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitYear
)

// tickInterval is a calendar step with its approximate duration.
type tickInterval struct {
	unit timeUnit
	step int
	dur  time.Duration
}

// tickIntervals lists the candidate steps, shortest first.
var tickIntervals = []tickInterval{
	{unitSecond, 1, time.Second},
	{unitSecond, 5, 5 * time.Second},
	{unitSecond, 15, 15 * time.Second},
	{unitSecond, 30, 30 * time.Second},
	{unitMinute, 1, time.Minute},
	{unitMinute, 5, 5 * time.Minute},
	{unitMinute, 15, 15 * time.Minute},
	{unitMinute, 30, 30 * time.Minute},
	{unitHour, 1, time.Hour},
	{unitHour, 3, 3 * time.Hour},
	{unitHour, 6, 6 * time.Hour},
	{unitHour, 12, 12 * time.Hour},
	{unitDay, 1, durationDay},
	{unitDay, 2, 2 * durationDay},
	{unitWeek, 1, durationWeek},
	{unitMonth, 1, durationMonth},
	{unitMonth, 3, 3 * durationMonth},
	{unitYear, 1, durationYear},
}

// timeScale maps instants onto a pixel range.
type timeScale struct {
	start, stop time.Time
	linear      linearScale
}

func newTimeScale(start, stop time.Time, r0, r1 float64) timeScale {
	return timeScale{
		start:  start,
		stop:   stop,
		linear: newLinearScale(float64(start.UnixMilli()), float64(stop.UnixMilli()), r0, r1),
	}
}

func (s timeScale) Map(t time.Time) float64 {
	return s.linear.Map(float64(t.UnixMilli()))
}

// chooseInterval picks the calendar step whose duration is closest to span/count.
func chooseInterval(start, stop time.Time, count int) (tickInterval, bool) {
	target := stop.Sub(start) / time.Duration(count)
	i := sort.Search(len(tickIntervals), func(i int) bool {
		return tickIntervals[i].dur > target
	})
	switch {
	case i == len(tickIntervals):
		years := linearTickStep(yearFraction(start), yearFraction(stop), float64(count))
		return tickInterval{unit: unitYear, step: int(math.Max(1, years)), dur: durationYear}, true
	case i == 0:
		return tickInterval{}, false
	}
	prev, next := tickIntervals[i-1], tickIntervals[i]
	if float64(target)/float64(prev.dur) < float64(next.dur)/float64(target) {
		return prev, true
	}
	return next, true
}

// linearTickStep is the positive tick step for [start, stop].
func linearTickStep(start, stop, count float64) float64 {
	inc := tickIncrement(start, stop, count)
	if inc < 0 {
		return -1 / inc
	}
	return inc
}

func yearFraction(t time.Time) float64 {
	return float64(t.Year()) + float64(t.YearDay()-1)/365
}

// timeTicks returns UTC calendar-aligned instants in [start, stop], about count of them.
func timeTicks(start, stop time.Time, count int) []time.Time {
	start, stop = start.UTC(), stop.UTC()
	if stop.Before(start) {
		start, stop = stop, start
	}
	if start.Equal(stop) {
		return []time.Time{start}
	}

	interval, ok := chooseInterval(start, stop, count)
	if !ok {
		return millisecondTicks(start, stop, count)
	}

	var ticks []time.Time
	for t := alignTick(start, interval); !t.After(stop); t = nextTick(t, interval) {
		if !t.Before(start) {
			ticks = append(ticks, t)
		}
	}
	return ticks
}

func millisecondTicks(start, stop time.Time, count int) []time.Time {
	values := linearTicks(float64(start.UnixMilli()), float64(stop.UnixMilli()), float64(count))
	ticks := make([]time.Time, 0, len(values))
	for _, v := range values {
		ticks = append(ticks, time.UnixMilli(int64(v)).UTC())
	}
	return ticks
}

// alignTick returns the first tick boundary at or before t.
func alignTick(t time.Time, iv tickInterval) time.Time {
	switch iv.unit {
	case unitSecond, unitMinute, unitHour:
		return t.Truncate(iv.dur)
	case unitDay:
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		for (d.Day()-1)%iv.step != 0 {
			d = d.AddDate(0, 0, -1)
		}
		return d
	case unitWeek:
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return d.AddDate(0, 0, -int(d.Weekday()))
	case unitMonth:
		m := int(t.Month()) - 1
		m -= m % iv.step
		return time.Date(t.Year(), time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
	default:
		y := t.Year()
		y -= ((y % iv.step) + iv.step) % iv.step
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// nextTick advances t by one interval. Day steps restart at the first of each month.
func nextTick(t time.Time, iv tickInterval) time.Time {
	switch iv.unit {
	case unitSecond, unitMinute, unitHour:
		return t.Add(iv.dur)
	case unitDay:
		n := t.AddDate(0, 0, iv.step)
		if n.Month() != t.Month() {
			n = time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		return n
	case unitWeek:
		return t.AddDate(0, 0, 7)
	case unitMonth:
		return t.AddDate(0, iv.step, 0)
	default:
		return t.AddDate(iv.step, 0, 0)
	}
}
