package models

import (
	"math"
	"time"
)

// TimeRange is the closed set of logical chart ranges.
type TimeRange string

const (
	RangeDay   TimeRange = "day"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
	Range2Y    TimeRange = "2y"
	Range4Y    TimeRange = "4y"
	Range8Y    TimeRange = "8y"
	RangeMax   TimeRange = "max"
)

// DefaultTimeRange is used when no valid range has been persisted.
const DefaultTimeRange = RangeMonth

// RangeOption pairs a range with its display label.
type RangeOption struct {
	Value TimeRange `json:"value"`
	Label string    `json:"label"`
}

var rangeOptions = []RangeOption{
	{Value: RangeDay, Label: "Day"},
	{Value: RangeWeek, Label: "Week"},
	{Value: RangeMonth, Label: "Month"},
	{Value: RangeYear, Label: "Year"},
	{Value: Range2Y, Label: "2Y"},
	{Value: Range4Y, Label: "4Y"},
	{Value: Range8Y, Label: "8Y"},
	{Value: RangeMax, Label: "Max"},
}

// RangeOptions returns the selectable ranges in display order.
func RangeOptions() []RangeOption {
	out := make([]RangeOption, len(rangeOptions))
	copy(out, rangeOptions)
	return out
}

// Valid reports whether r is a member of the enum.
func (r TimeRange) Valid() bool {
	for _, o := range rangeOptions {
		if o.Value == r {
			return true
		}
	}
	return false
}

// Span is the logical length of the range. Ranges are totally ordered by Span;
// RangeMax sorts after every finite range. Provider query windows are mapped
// separately and need not match Span.
func (r TimeRange) Span() time.Duration {
	const day = 24 * time.Hour
	switch r {
	case RangeDay:
		return day
	case RangeWeek:
		return 7 * day
	case RangeMonth:
		return 30 * day
	case RangeYear:
		return 365 * day
	case Range2Y:
		return 2 * 365 * day
	case Range4Y:
		return 4 * 365 * day
	case Range8Y:
		return 8 * 365 * day
	case RangeMax:
		return time.Duration(math.MaxInt64)
	default:
		return 0
	}
}

// Less orders ranges by span length.
func (r TimeRange) Less(other TimeRange) bool {
	return r.Span() < other.Span()
}

// ParseTimeRange validates s against the enum.
func ParseTimeRange(s string) (TimeRange, bool) {
	r := TimeRange(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// TimeRangeOrDefault returns the range for s, or DefaultTimeRange when s is not valid.
func TimeRangeOrDefault(s string) TimeRange {
	if r, ok := ParseTimeRange(s); ok {
		return r
	}
	return DefaultTimeRange
}
