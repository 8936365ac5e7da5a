package market

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketview/internal/models"
)

func TestNormalizePairs_DropsMalformedEntries(t *testing.T) {
	raw := []any{
		[]any{float64(1000), "bad"},
		[]any{float64(2000), 45.5},
		[]any{float64(3000), math.NaN()},
	}

	series := NormalizePairs(raw)
	require.Len(t, series, 1)
	assert.Equal(t, time.UnixMilli(2000).UTC(), series[0].Timestamp)
	assert.Equal(t, 45.5, series[0].Value)
}

func TestNormalizePairs_IgnoresNonPairs(t *testing.T) {
	raw := []any{
		"not a pair",
		[]any{float64(1000)},
		[]any{float64(1000), 1.0, 2.0},
		nil,
		map[string]any{"t": 1000, "v": 1},
		[]any{json.Number("4000"), json.Number("12.25")},
		[]any{nil, 3.0},
	}

	series := NormalizePairs(raw)
	require.Len(t, series, 1)
	assert.Equal(t, int64(4000), series[0].Timestamp.UnixMilli())
	assert.Equal(t, 12.25, series[0].Value)
}

func TestNormalizePairs_PreservesOrder(t *testing.T) {
	raw := []any{
		[]any{float64(3000), 3.0},
		[]any{float64(1000), 1.0},
		[]any{float64(2000), 2.0},
	}

	series := NormalizePairs(raw)
	require.Len(t, series, 3)
	assert.Equal(t, []float64{3, 1, 2}, []float64{series[0].Value, series[1].Value, series[2].Value})
}

func TestNormalizePairs_InvalidTimestamps(t *testing.T) {
	raw := []any{
		[]any{math.Inf(1), 1.0},
		[]any{9e15, 1.0},
		[]any{-9e15, 1.0},
		[]any{8.64e15, 2.0},
		[]any{float64(5000), math.Inf(-1)},
	}

	series := NormalizePairs(raw)
	require.Len(t, series, 1)
	assert.Equal(t, 2.0, series[0].Value)
}

func TestNormalizePairs_NumericStrings(t *testing.T) {
	raw := []any{
		[]any{"1000", " 42.5 "},
		[]any{"", "1"},
	}

	series := NormalizePairs(raw)
	require.Len(t, series, 1)
	assert.Equal(t, 42.5, series[0].Value)
}

func TestNormalizePrices_NilPayload(t *testing.T) {
	series := NormalizePrices(nil)
	assert.NotNil(t, series)
	assert.Empty(t, series)

	series = NormalizePrices(&models.MarketChartPayload{})
	assert.Empty(t, series)
}

func TestNormalizePrices_DecodedJSON(t *testing.T) {
	var payload models.MarketChartPayload
	require.NoError(t, json.Unmarshal([]byte(`{"prices":[[1700000000000,42000.5],[1700086400000,"x"],[1700172800000,43000]]}`), &payload))

	series := NormalizePrices(&payload)
	require.Len(t, series, 2)
	assert.Equal(t, 42000.5, series[0].Value)
	assert.Equal(t, 43000.0, series[1].Value)
	assert.True(t, series[0].Timestamp.Before(series[1].Timestamp))
}
