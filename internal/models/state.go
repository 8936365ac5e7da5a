package models

// SelectionState is the observable state owned by the market data store.
// Series always belongs to the last completed fetch for the current
// (SelectedAsset, Range) pair, or is empty while loading or unselected.
type SelectionState struct {
	SelectedAsset *MarketAsset `json:"selected_asset"`
	Range         TimeRange    `json:"range"`
	Series        Series       `json:"series"`
	IsLoading     bool         `json:"is_loading"`
	Error         string       `json:"error,omitempty"`
	Version       uint64       `json:"version"`
}

// AccentColor returns the selected asset's accent color, or DefaultAccentColor.
func (s SelectionState) AccentColor() string {
	if s.SelectedAsset == nil || s.SelectedAsset.AccentColor == "" {
		return DefaultAccentColor
	}
	return s.SelectedAsset.AccentColor
}

// Matches reports whether the current selection targets assetID and r.
func (s SelectionState) Matches(assetID string, r TimeRange) bool {
	return s.SelectedAsset != nil && s.SelectedAsset.ID == assetID && s.Range == r
}

// Preference keys persisted in the client state store.
const (
	PrefRange      = "range"
	PrefTheme      = "theme"
	PrefDemoAPIKey = "coingecko_demo_api_key"
)
