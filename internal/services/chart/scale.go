package chart

import (
	"math"
)

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// linearScale maps a continuous domain onto a pixel range.
type linearScale struct {
	d0, d1 float64
	r0, r1 float64
}

func newLinearScale(d0, d1, r0, r1 float64) linearScale {
	return linearScale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Map projects v. A degenerate domain maps everything to the range midpoint.
func (s linearScale) Map(v float64) float64 {
	span := s.d1 - s.d0
	if span == 0 || math.IsNaN(span) {
		return (s.r0 + s.r1) / 2
	}
	t := (v - s.d0) / span
	return s.r0 + t*(s.r1-s.r0)
}

// tickSpec returns integer bounds and an increment for about count ticks in
// [start, stop]. A negative inc means the tick step is 1/-inc.
func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	errRatio := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}

	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}

	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// tickIncrement is the signed step used by niceDomain.
func tickIncrement(start, stop, count float64) float64 {
	_, _, inc := tickSpec(start, stop, count)
	return inc
}

// linearTicks returns round values covering [start, stop], roughly count of them.
func linearTicks(start, stop, count float64) []float64 {
	if !(count > 0) || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	i1, i2, inc := tickSpec(start, stop, count)
	if !(i2 >= i1) || math.IsInf(inc, 0) || inc == 0 {
		return nil
	}

	n := int(i2 - i1 + 1)
	ticks := make([]float64, n)
	for i := 0; i < n; i++ {
		if inc < 0 {
			ticks[i] = (i1 + float64(i)) / -inc
		} else {
			ticks[i] = (i1 + float64(i)) * inc
		}
	}
	if reverse {
		for l, r := 0, n-1; l < r; l, r = l+1, r-1 {
			ticks[l], ticks[r] = ticks[r], ticks[l]
		}
	}
	return ticks
}

// niceDomain extends [start, stop] outward to round tick boundaries.
func niceDomain(start, stop, count float64) (float64, float64) {
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	var prestep float64
loop:
	for iter := 0; iter < 10; iter++ {
		step := tickIncrement(start, stop, count)
		if step == prestep {
			break loop
		}
		switch {
		case step > 0:
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		case step < 0:
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		default:
			break loop
		}
		prestep = step
	}

	if reverse {
		return stop, start
	}
	return start, stop
}

// paddedExtent widens [lo, hi] so a flat series never yields a zero-height domain.
func paddedExtent(lo, hi float64) (float64, float64) {
	span := hi - lo
	var pad float64
	if span == 0 {
		pad = math.Max(1, math.Abs(hi)*0.01)
	} else {
		pad = span * 0.05
	}
	return lo - pad, hi + pad
}
