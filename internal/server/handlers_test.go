package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/marketview/internal/app"
	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
	"github.com/bobmcallan/marketview/internal/services/chart"
	"github.com/bobmcallan/marketview/internal/storage/preferences"
)

// fakeChartClient serves five daily prices for any coin.
type fakeChartClient struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *fakeChartClient) GetMarketChart(ctx context.Context, coinID string, opts ...interfaces.MarketChartOption) (*models.MarketChartPayload, error) {
	c.mu.Lock()
	c.calls++
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	base := int64(1791763200000)
	prices := make([]any, 0, 5)
	for i := 0; i < 5; i++ {
		prices = append(prices, []any{float64(base + int64(i)*86400000), 40000.0 + float64(i)*500})
	}
	return &models.MarketChartPayload{Prices: prices}, nil
}

func (c *fakeChartClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type testEnv struct {
	app    *app.App
	server *Server
	prefs  *preferences.MemoryStore
	client *fakeChartClient
}

func newTestEnv(t *testing.T, configure ...func(*common.Config)) *testEnv {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Chart.RedrawDelay = "1ms"
	cfg.Server.StaticDir = t.TempDir()
	for _, fn := range configure {
		fn(cfg)
	}

	prefs := preferences.NewMemoryStore()
	client := &fakeChartClient{}
	a, err := app.New(cfg, common.NewSilentLogger(), prefs, client)
	require.NoError(t, err)

	srv := NewServer(a)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		a.Close()
	})
	return &testEnv{app: a, server: srv, prefs: prefs, client: client}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type stateBody struct {
	SelectedAsset *models.MarketAsset `json:"selected_asset"`
	Range         string              `json:"range"`
	Series        []models.DataPoint  `json:"series"`
	IsLoading     bool                `json:"is_loading"`
	Error         string              `json:"error"`
	Version       uint64              `json:"version"`
	AccentColor   string              `json:"accent_color"`
	Theme         string              `json:"theme"`
	ThemeClass    string              `json:"theme_class"`
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rr)["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	rr = env.do(t, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, common.GetVersion(), decode[common.VersionInfo](t, rr).Version)
}

func TestAssetsAndRanges(t *testing.T) {
	env := newTestEnv(t)

	assets := decode[[]models.MarketAsset](t, env.do(t, http.MethodGet, "/api/assets", ""))
	require.Len(t, assets, 3)
	assert.Equal(t, "bitcoin", assets[0].ID)
	assert.Equal(t, models.CategoryRealEstate, assets[2].Category)

	ranges := decode[[]models.RangeOption](t, env.do(t, http.MethodGet, "/api/ranges", ""))
	require.Len(t, ranges, 8)
	assert.Equal(t, models.RangeDay, ranges[0].Value)
	assert.Equal(t, "Max", ranges[7].Label)
}

func TestState_Initial(t *testing.T) {
	env := newTestEnv(t)

	state := decode[stateBody](t, env.do(t, http.MethodGet, "/api/state", ""))
	assert.Nil(t, state.SelectedAsset)
	assert.Equal(t, "month", state.Range)
	assert.Empty(t, state.Series)
	assert.Equal(t, models.DefaultAccentColor, state.AccentColor)
	assert.Equal(t, "light", state.Theme)
	assert.Equal(t, "theme-light", state.ThemeClass)
}

func TestSelect(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/select", `{"asset_id":"bitcoin"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	state := decode[stateBody](t, rr)
	require.NotNil(t, state.SelectedAsset)
	assert.Equal(t, "bitcoin", state.SelectedAsset.ID)
	assert.Equal(t, "#f7931a", state.AccentColor)

	env.app.Store.Wait()
	state = decode[stateBody](t, env.do(t, http.MethodGet, "/api/state", ""))
	assert.False(t, state.IsLoading)
	assert.Len(t, state.Series, 5)
	assert.Empty(t, state.Error)
}

func TestSelect_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"unknown asset", `{"asset_id":"dogecoin"}`, http.StatusNotFound, "asset_not_found"},
		{"missing id", `{}`, http.StatusBadRequest, "invalid_request"},
		{"bad json", `{`, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/select", tt.body)
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantErr, decode[ErrorResponse](t, rr).Code)
		})
	}
}

func TestSelect_UnsupportedCategory(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/select", `{"asset_id":"austin-real-estate"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	state := decode[stateBody](t, rr)
	assert.False(t, state.IsLoading)
	assert.Equal(t, `No data source wired up yet for category "real-estate".`, state.Error)
	assert.Zero(t, env.client.Calls())
}

func TestRange(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/api/range", `{"range":"week"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "week", decode[stateBody](t, rr).Range)

	stored, err := env.prefs.Get(context.Background(), models.PrefRange)
	require.NoError(t, err)
	assert.Equal(t, "week", stored)

	rr = env.do(t, http.MethodPut, "/api/range", `{"range":"decade"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_range", decode[ErrorResponse](t, rr).Code)
	assert.Equal(t, models.RangeWeek, env.app.Store.Snapshot().Range)
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t)

	prefs := decode[preferencesResponse](t, env.do(t, http.MethodGet, "/api/preferences", ""))
	assert.Equal(t, models.RangeMonth, prefs.Range)
	assert.Equal(t, models.ThemeLight, prefs.Theme)
	assert.Equal(t, "#ffffff", prefs.Tokens.ChartBg)
	assert.False(t, prefs.APIKeySet)

	rr := env.do(t, http.MethodPut, "/api/preferences/theme", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "theme-dark", decode[stateBody](t, rr).ThemeClass)

	rr = env.do(t, http.MethodPut, "/api/preferences/theme", `{"theme":"neon"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_theme", decode[ErrorResponse](t, rr).Code)

	rr = env.do(t, http.MethodPut, "/api/preferences/api-key", `{"api_key":"CG-test"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]bool{"api_key_set": true}, decode[map[string]bool](t, rr))

	prefs = decode[preferencesResponse](t, env.do(t, http.MethodGet, "/api/preferences", ""))
	assert.Equal(t, models.ThemeDark, prefs.Theme)
	assert.Equal(t, "#121212", prefs.Tokens.ChartBg)
	assert.True(t, prefs.APIKeySet)

	// The key itself is never echoed back.
	assert.NotContains(t, env.do(t, http.MethodGet, "/api/preferences", "").Body.String(), "CG-test")
}

func TestChart_GeometryFollowsSelection(t *testing.T) {
	env := newTestEnv(t)

	g := decode[chart.Geometry](t, env.do(t, http.MethodGet, "/api/chart", ""))
	assert.True(t, g.Empty)
	assert.Equal(t, 960.0, g.Width)

	env.do(t, http.MethodPost, "/api/select", `{"asset_id":"ethereum"}`)
	env.app.Store.Wait()

	require.Eventually(t, func() bool {
		g = decode[chart.Geometry](t, env.do(t, http.MethodGet, "/api/chart", ""))
		return !g.Empty
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "#627eea", g.Style.Line)
	assert.NotEmpty(t, g.YAxis.Ticks)
}

func TestChart_SizeOverride(t *testing.T) {
	env := newTestEnv(t)

	g := decode[chart.Geometry](t, env.do(t, http.MethodGet, "/api/chart?width=100&height=500", ""))
	assert.Equal(t, float64(chart.MinWidth), g.Width)
	assert.Equal(t, 500.0, g.Height)

	rr := env.do(t, http.MethodGet, "/api/chart?width=-1", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_size", decode[ErrorResponse](t, rr).Code)
}

func TestChartImage(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/select", `{"asset_id":"bitcoin"}`)
	env.app.Store.Wait()

	rr := env.do(t, http.MethodGet, "/api/chart.svg?width=640&height=320", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<svg")

	rr = env.do(t, http.MethodGet, "/api/chart.png", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))
}

func TestChartResize(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/chart/resize", `{"width":700,"height":350}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[resizeResponse](t, rr).Changed)

	rr = env.do(t, http.MethodPost, "/api/chart/resize", `{"width":700,"height":350}`)
	assert.False(t, decode[resizeResponse](t, rr).Changed)

	w, h := env.app.Scheduler.Size()
	assert.Equal(t, 700.0, w)
	assert.Equal(t, 350.0, h)

	rr = env.do(t, http.MethodPost, "/api/chart/resize", `{"width":0,"height":350}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rr).Code)

	rr = env.do(t, http.MethodDelete, "/api/state", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestShutdown_DisabledInProduction(t *testing.T) {
	env := newTestEnv(t, func(c *common.Config) { c.Environment = "production" })
	rr := env.do(t, http.MethodPost, "/api/shutdown", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestStatic_SPAFallback(t *testing.T) {
	env := newTestEnv(t)
	dir := env.app.Config.Server.StaticDir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dashboard</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.js"), []byte("console.log(1)"), 0644))

	rr := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dashboard")

	rr = env.do(t, http.MethodGet, "/main.js", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "console.log(1)", rr.Body.String())

	rr = env.do(t, http.MethodGet, "/assets/bitcoin", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "dashboard"))
}

func TestStatic_MissingBundle(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
