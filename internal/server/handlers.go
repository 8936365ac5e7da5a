package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/marketview/internal/app"
	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
	"github.com/bobmcallan/marketview/internal/services/market"
)

// stateResponse is SelectionState plus the presentation values the view needs.
type stateResponse struct {
	models.SelectionState
	AccentColor string       `json:"accent_color"`
	Theme       models.Theme `json:"theme"`
	ThemeClass  string       `json:"theme_class"`
}

func (s *Server) stateResponse(state models.SelectionState) stateResponse {
	theme := s.app.Theme()
	return stateResponse{
		SelectionState: state,
		AccentColor:    state.AccentColor(),
		Theme:          theme,
		ThemeClass:     models.ThemeClass(theme),
	}
}

type selectRequest struct {
	AssetID string `json:"asset_id"`
}

type rangeRequest struct {
	Range string `json:"range"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

type preferencesResponse struct {
	Range      models.TimeRange   `json:"range"`
	Theme      models.Theme       `json:"theme"`
	ThemeClass string             `json:"theme_class"`
	Tokens     models.ThemeTokens `json:"tokens"`
	APIKeySet  bool               `json:"api_key_set"`
}

// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// GET /api/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// GET /api/assets
func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.app.Store.Assets())
}

// GET /api/ranges
func (s *Server) handleRanges(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, models.RangeOptions())
}

// GET /api/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.stateResponse(s.app.Store.Snapshot()))
}

// POST /api/select
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	id := strings.TrimSpace(req.AssetID)
	if id == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "asset_id is required", "invalid_request")
		return
	}
	if err := s.app.Store.SelectAssetByID(id); err != nil {
		if errors.Is(err, market.ErrAssetNotFound) {
			WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "asset_not_found")
			return
		}
		WriteErrorWithCode(w, http.StatusInternalServerError, err.Error(), "internal")
		return
	}
	WriteJSON(w, http.StatusOK, s.stateResponse(s.app.Store.Snapshot()))
}

// PUT /api/range
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := s.app.Store.SetRange(models.TimeRange(strings.TrimSpace(req.Range))); err != nil {
		if errors.Is(err, market.ErrInvalidRange) {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_range")
			return
		}
		WriteErrorWithCode(w, http.StatusInternalServerError, err.Error(), "internal")
		return
	}
	WriteJSON(w, http.StatusOK, s.stateResponse(s.app.Store.Snapshot()))
}

// GET /api/preferences
func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	theme := s.app.Theme()
	resp := preferencesResponse{
		Range:      s.app.Store.Snapshot().Range,
		Theme:      theme,
		ThemeClass: models.ThemeClass(theme),
		Tokens:     models.ThemeTokensFor(theme),
	}
	if s.app.Preferences != nil {
		key, err := s.app.Preferences.Get(r.Context(), models.PrefDemoAPIKey)
		switch {
		case err == nil:
			resp.APIKeySet = strings.TrimSpace(key) != ""
		case !errors.Is(err, interfaces.ErrPreferenceNotFound):
			s.logger.Warn().Err(err).Msg("Failed to read demo API key preference")
		}
	}
	if !resp.APIKeySet {
		resp.APIKeySet = strings.TrimSpace(s.app.Config.Clients.CoinGecko.APIKey) != ""
	}
	WriteJSON(w, http.StatusOK, resp)
}

// PUT /api/preferences/theme
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if _, err := s.app.SetTheme(r.Context(), req.Theme); err != nil {
		if errors.Is(err, app.ErrInvalidTheme) {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_theme")
			return
		}
		WriteErrorWithCode(w, http.StatusInternalServerError, err.Error(), "internal")
		return
	}

	WriteJSON(w, http.StatusOK, s.broadcastCurrentState())
}

// PUT /api/preferences/api-key
func (s *Server) handleAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := s.app.SetDemoAPIKey(r.Context(), req.APIKey); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store demo API key")
		WriteErrorWithCode(w, http.StatusInternalServerError, "Failed to store API key", "storage_error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"api_key_set": strings.TrimSpace(req.APIKey) != ""})
}
