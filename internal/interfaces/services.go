package interfaces

import (
	"context"

	"github.com/bobmcallan/marketview/internal/models"
)

// SeriesFetcher retrieves a normalized series for one (asset, range) pair.
type SeriesFetcher interface {
	// Fetch issues (or joins) one request and returns the normalized series
	Fetch(ctx context.Context, assetID string, r models.TimeRange) (models.Series, error)

	// Forget drops any in-flight request for the pair so the next Fetch starts afresh
	Forget(assetID string, r models.TimeRange)
}

// MarketDataStore is the observable source of truth for the dashboard.
type MarketDataStore interface {
	Assets() []models.MarketAsset
	Asset(id string) (models.MarketAsset, bool)
	Snapshot() models.SelectionState
	SelectAsset(asset models.MarketAsset)
	SelectAssetByID(id string) error
	SetRange(r models.TimeRange) error
	Prefetch(ctx context.Context, asset models.MarketAsset, r models.TimeRange) error
	Subscribe(fn func(models.SelectionState)) (unsubscribe func())
}
