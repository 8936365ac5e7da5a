// Package interfaces defines service contracts for Marketview
package interfaces

import (
	"context"

	"github.com/bobmcallan/marketview/internal/models"
)

// MarketChartClient provides access to a historical market chart provider
type MarketChartClient interface {
	// GetMarketChart retrieves the raw price history for a coin
	GetMarketChart(ctx context.Context, coinID string, opts ...MarketChartOption) (*models.MarketChartPayload, error)
}

// MarketChartOption configures market chart requests
type MarketChartOption func(*MarketChartParams)

// MarketChartParams holds market chart query parameters
type MarketChartParams struct {
	VsCurrency string // quote currency, "usd"
	Days       string // day count or "max"
	Interval   string // "daily"
	DemoAPIKey string // optional x_cg_demo_api_key
}

// WithDays sets the history window ("7", "365", "max", ...)
func WithDays(days string) MarketChartOption {
	return func(p *MarketChartParams) {
		p.Days = days
	}
}

// WithVsCurrency sets the quote currency
func WithVsCurrency(currency string) MarketChartOption {
	return func(p *MarketChartParams) {
		p.VsCurrency = currency
	}
}

// WithInterval sets the sampling interval
func WithInterval(interval string) MarketChartOption {
	return func(p *MarketChartParams) {
		p.Interval = interval
	}
}

// WithDemoAPIKey attaches an optional demo credential; empty keys are ignored
func WithDemoAPIKey(key string) MarketChartOption {
	return func(p *MarketChartParams) {
		p.DemoAPIKey = key
	}
}
