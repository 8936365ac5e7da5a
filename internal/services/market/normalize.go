package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/marketview/internal/models"
)

// maxEpochMillis bounds representable instants to ±100,000,000 days from the epoch.
const maxEpochMillis = 8.64e15

// NormalizePrices converts the provider's price pairs into a Series.
// Entries that are not 2-element numeric pairs are skipped, as are points with a
// non-finite value or a timestamp that is not a valid instant. Input order is kept.
func NormalizePrices(payload *models.MarketChartPayload) models.Series {
	if payload == nil {
		return models.Series{}
	}
	return NormalizePairs(payload.Prices)
}

// NormalizePairs is NormalizePrices over a raw list of [timestampMillis, value] entries.
func NormalizePairs(raw []any) models.Series {
	series := make(models.Series, 0, len(raw))
	for _, entry := range raw {
		tsRaw, valRaw, ok := pair(entry)
		if !ok {
			continue
		}
		ms, ok := toFloat(tsRaw)
		if !ok || !validMillis(ms) {
			continue
		}
		v, ok := toFloat(valRaw)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		series = append(series, models.DataPoint{
			Timestamp: time.UnixMilli(int64(math.Trunc(ms))).UTC(),
			Value:     v,
		})
	}
	return series
}

func pair(entry any) (any, any, bool) {
	switch e := entry.(type) {
	case []any:
		if len(e) != 2 {
			return nil, nil, false
		}
		return e[0], e[1], true
	case []float64:
		if len(e) != 2 {
			return nil, nil, false
		}
		return e[0], e[1], true
	case [2]float64:
		return e[0], e[1], true
	default:
		return nil, nil, false
	}
}

func validMillis(ms float64) bool {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return false
	}
	return math.Abs(ms) <= maxEpochMillis
}

// toFloat accepts JSON numbers in any decoded form plus numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
