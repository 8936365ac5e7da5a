// Package models defines data structures for Marketview
package models

import (
	"time"
)

// AssetCategory classifies a market asset by the kind of data source it needs.
type AssetCategory string

const (
	CategoryCrypto     AssetCategory = "crypto"
	CategoryStock      AssetCategory = "stock"
	CategoryRealEstate AssetCategory = "real-estate"
)

// DefaultAccentColor is used for the chart line when no asset is selected.
const DefaultAccentColor = "#3b82f6"

// MarketAsset is an immutable catalog entry.
type MarketAsset struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    AssetCategory `json:"category"`
	AccentColor string        `json:"accent_color"` // CSS color
}

// DataPoint is a single (timestamp, value) sample. Value is always finite.
type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is an ordered sequence of data points, ascending by timestamp.
type Series []DataPoint

// Clone returns a copy that shares no backing array with s.
func (s Series) Clone() Series {
	if s == nil {
		return Series{}
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// MarketChartPayload is the loosely-typed provider response for a market chart.
// Only Prices is consumed; entries are expected to be [timestampMillis, value] pairs
// but are not validated until normalization.
type MarketChartPayload struct {
	Prices       []any `json:"prices"`
	MarketCaps   []any `json:"market_caps,omitempty"`
	TotalVolumes []any `json:"total_volumes,omitempty"`
}

// CacheKey composes the response cache key for an asset and range.
func CacheKey(assetID string, r TimeRange) string {
	return assetID + "::" + string(r)
}
