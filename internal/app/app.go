// Package app wires configuration, preference storage, the market data store
// and the chart render queue into one runtime shared by the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/marketview/internal/clients/coingecko"
	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
	"github.com/bobmcallan/marketview/internal/services/chart"
	"github.com/bobmcallan/marketview/internal/services/market"
	"github.com/bobmcallan/marketview/internal/storage/preferences"
)

// ErrInvalidTheme is returned when a theme other than light or dark is set.
var ErrInvalidTheme = errors.New(`theme must be "light" or "dark"`)

// App holds the initialized clients, services and render queue.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Preferences interfaces.PreferenceStore
	Client      interfaces.MarketChartClient
	Fetcher     *market.Fetcher
	Store       *market.Store
	Surface     *chart.ImageSurface
	Renderer    *chart.Renderer
	Scheduler   *chart.Scheduler
	Resize      *chart.ResizeCoordinator
	StartupTime time.Time

	mu    sync.RWMutex
	theme models.Theme

	unsubscribe func()
	warmCron    *cron.Cron
	warmCancel  context.CancelFunc
	warmWG      sync.WaitGroup
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp loads configuration, opens preference storage and builds the App.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, MARKETVIEW_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("MARKETVIEW_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "marketview.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/marketview.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if p := config.Storage.Path; p != "" && p != preferences.MemoryDatabase && !filepath.IsAbs(p) {
		config.Storage.Path = filepath.Join(binDir, p)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	prefs, err := preferences.Open(context.Background(), logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preferences: %w", err)
	}

	cg := config.Clients.CoinGecko
	client := coingecko.NewClient(
		coingecko.WithBaseURL(cg.BaseURL),
		coingecko.WithLogger(logger),
		coingecko.WithRateLimit(cg.RateLimit),
		coingecko.WithTimeout(cg.GetTimeout()),
	)
	if strings.TrimSpace(cg.APIKey) == "" {
		logger.Info().Msg("CoinGecko demo API key not configured - using the keyless public tier")
	}

	a, err := New(config, logger, prefs, client)
	if err != nil {
		prefs.Close()
		return nil, err
	}
	return a, nil
}

// New builds an App from already-constructed dependencies.
func New(config *common.Config, logger *common.Logger, prefs interfaces.PreferenceStore, client interfaces.MarketChartClient) (*App, error) {
	start := time.Now()
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	fetcher := market.NewFetcher(client,
		market.WithPreferences(prefs),
		market.WithDefaultAPIKey(config.Clients.CoinGecko.APIKey),
		market.WithFetcherLogger(logger),
	)
	store := market.NewStore(fetcher,
		market.WithPreferenceStore(prefs),
		market.WithStoreLogger(logger),
		market.WithCancelStale(config.Store.CancelStale),
	)

	surface, err := chart.NewImageSurface(chart.FormatSVG)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create chart surface: %w", err)
	}
	renderer := chart.NewRenderer(surface, logger)
	scheduler := chart.NewScheduler(renderer,
		config.Chart.GetRedrawDelay(),
		float64(config.Chart.DefaultWidth),
		float64(config.Chart.DefaultHeight),
		logger,
	)

	a := &App{
		Config:      config,
		Logger:      logger,
		Preferences: prefs,
		Client:      client,
		Fetcher:     fetcher,
		Store:       store,
		Surface:     surface,
		Renderer:    renderer,
		Scheduler:   scheduler,
		Resize:      chart.NewResizeCoordinator(scheduler, logger),
		StartupTime: start,
		theme:       loadTheme(prefs, logger),
	}

	scheduler.SetTheme(a.theme)
	scheduler.SetState(store.Snapshot())
	a.unsubscribe = store.Subscribe(scheduler.SetState)

	logger.Info().
		Str("range", string(store.Snapshot().Range)).
		Str("theme", string(a.theme)).
		Bool("cancel_stale", config.Store.CancelStale).
		Dur("startup", time.Since(start)).
		Msg("App initialized")

	return a, nil
}

func loadTheme(prefs interfaces.PreferenceStore, logger *common.Logger) models.Theme {
	if prefs == nil {
		return models.DefaultTheme
	}
	v, err := prefs.Get(context.Background(), models.PrefTheme)
	if err != nil {
		if !errors.Is(err, interfaces.ErrPreferenceNotFound) {
			logger.Warn().Err(err).Msg("Failed to load persisted theme")
		}
		return models.DefaultTheme
	}
	return models.ThemeOrDefault(v)
}

// Theme returns the active theme.
func (a *App) Theme() models.Theme {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.theme
}

// SetTheme switches the palette, persists the choice and requests a redraw.
// A persistence failure is logged and does not undo the switch.
func (a *App) SetTheme(ctx context.Context, value string) (models.Theme, error) {
	theme, ok := models.ParseTheme(strings.TrimSpace(value))
	if !ok {
		return "", ErrInvalidTheme
	}

	a.mu.Lock()
	a.theme = theme
	a.mu.Unlock()

	a.Scheduler.SetTheme(theme)
	if a.Preferences != nil {
		if err := a.Preferences.Set(ctx, models.PrefTheme, string(theme)); err != nil {
			a.Logger.Warn().Err(err).Str("theme", string(theme)).Msg("Failed to persist theme")
		}
	}
	return theme, nil
}

// SetDemoAPIKey stores the CoinGecko demo key used by subsequent fetches.
// An empty key removes the preference so the configured default applies.
func (a *App) SetDemoAPIKey(ctx context.Context, key string) error {
	if a.Preferences == nil {
		return fmt.Errorf("preference storage not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		if err := a.Preferences.Delete(ctx, models.PrefDemoAPIKey); err != nil {
			return fmt.Errorf("failed to clear demo API key: %w", err)
		}
		return nil
	}
	if err := a.Preferences.Set(ctx, models.PrefDemoAPIKey, key); err != nil {
		return fmt.Errorf("failed to save demo API key: %w", err)
	}
	return nil
}

// Close releases all resources held by the App.
// Shutdown order: stop warming, detach the render queue, stop fetches and
// in-flight provider requests, close storage.
func (a *App) Close() {
	a.stopWarmCache()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.Scheduler != nil {
		a.Scheduler.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.Fetcher != nil {
		a.Fetcher.Close()
	}
	if a.Preferences != nil {
		if err := a.Preferences.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close preference storage")
		}
		a.Preferences = nil
	}
}
