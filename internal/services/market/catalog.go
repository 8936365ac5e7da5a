// Package market provides the market data store, fetcher and response cache
package market

import (
	"github.com/bobmcallan/marketview/internal/models"
)

// defaultCatalog is the static asset list loaded at process start.
var defaultCatalog = []models.MarketAsset{
	{ID: "bitcoin", Name: "Bitcoin", Category: models.CategoryCrypto, AccentColor: "#f7931a"},
	{ID: "ethereum", Name: "Ethereum", Category: models.CategoryCrypto, AccentColor: "#627eea"},
	{ID: "austin-real-estate", Name: "Austin Real Estate", Category: models.CategoryRealEstate, AccentColor: "#22c55e"},
}

// DefaultCatalog returns a copy of the built-in asset catalog.
func DefaultCatalog() []models.MarketAsset {
	out := make([]models.MarketAsset, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// catalog indexes assets by ID while keeping display order.
type catalog struct {
	assets []models.MarketAsset
	byID   map[string]models.MarketAsset
}

func newCatalog(assets []models.MarketAsset) *catalog {
	c := &catalog{
		assets: make([]models.MarketAsset, 0, len(assets)),
		byID:   make(map[string]models.MarketAsset, len(assets)),
	}
	for _, a := range assets {
		if _, dup := c.byID[a.ID]; dup || a.ID == "" {
			continue
		}
		c.assets = append(c.assets, a)
		c.byID[a.ID] = a
	}
	return c
}

func (c *catalog) list() []models.MarketAsset {
	out := make([]models.MarketAsset, len(c.assets))
	copy(out, c.assets)
	return out
}

func (c *catalog) get(id string) (models.MarketAsset, bool) {
	a, ok := c.byID[id]
	return a, ok
}
