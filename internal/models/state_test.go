package models

import (
	"testing"
	"time"
)

func TestSelectionState_AccentColor(t *testing.T) {
	var s SelectionState
	if got := s.AccentColor(); got != DefaultAccentColor {
		t.Errorf("no selection: got %q, want %q", got, DefaultAccentColor)
	}
	s.SelectedAsset = &MarketAsset{ID: "bitcoin", AccentColor: "#f7931a"}
	if got := s.AccentColor(); got != "#f7931a" {
		t.Errorf("got %q", got)
	}
}

func TestSelectionState_Matches(t *testing.T) {
	s := SelectionState{SelectedAsset: &MarketAsset{ID: "bitcoin"}, Range: RangeWeek}
	if !s.Matches("bitcoin", RangeWeek) {
		t.Error("expected match")
	}
	if s.Matches("bitcoin", RangeYear) || s.Matches("ethereum", RangeWeek) {
		t.Error("unexpected match")
	}
	if (SelectionState{Range: RangeWeek}).Matches("bitcoin", RangeWeek) {
		t.Error("no selection never matches")
	}
}

func TestSeries_Clone(t *testing.T) {
	orig := Series{{Timestamp: time.Unix(0, 0).UTC(), Value: 1}}
	c := orig.Clone()
	c[0].Value = 2
	if orig[0].Value != 1 {
		t.Error("clone shares backing array")
	}
	if got := Series(nil).Clone(); got == nil || len(got) != 0 {
		t.Errorf("nil clone = %#v, want empty non-nil", got)
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("bitcoin", RangeWeek); got != "bitcoin::week" {
		t.Errorf("CacheKey = %q", got)
	}
}
