package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
)

// Fetcher issues one provider request per (asset, range), normalizes the
// result and classifies failures. Concurrent calls for the same pair share
// a single request.
type Fetcher struct {
	client interfaces.MarketChartClient
	prefs  interfaces.PreferenceStore
	apiKey string
	logger *common.Logger

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]*inflightCall
	closed   bool
	wg       sync.WaitGroup
}

type inflightCall struct {
	cancel context.CancelFunc
}

// FetcherOption configures the fetcher
type FetcherOption func(*Fetcher)

// WithPreferences reads the demo API key from the preference store on every fetch
func WithPreferences(prefs interfaces.PreferenceStore) FetcherOption {
	return func(f *Fetcher) {
		f.prefs = prefs
	}
}

// WithDefaultAPIKey sets the key used when no preference is stored
func WithDefaultAPIKey(key string) FetcherOption {
	return func(f *Fetcher) {
		f.apiKey = strings.TrimSpace(key)
	}
}

// WithFetcherLogger sets the logger
func WithFetcherLogger(logger *common.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a fetcher over a market chart client
func NewFetcher(client interfaces.MarketChartClient, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   client,
		logger:   common.NewSilentLogger(),
		inflight: make(map[string]*inflightCall),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the normalized series for (assetID, r). Cancelling ctx stops
// the wait; the shared request keeps running for other callers until Forget
// or Close.
func (f *Fetcher) Fetch(ctx context.Context, assetID string, r models.TimeRange) (models.Series, error) {
	key := models.CacheKey(assetID, r)

	ch := f.group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call := &inflightCall{cancel: cancel}
		if !f.track(key, call) {
			cancel()
			return nil, fmt.Errorf("fetcher closed: %w", context.Canceled)
		}
		defer func() {
			f.untrack(key, call)
			cancel()
			f.wg.Done()
		}()
		return f.fetch(callCtx, assetID, r)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(models.Series).Clone(), nil
	}
}

// Forget aborts any in-flight request for (assetID, r).
func (f *Fetcher) Forget(assetID string, r models.TimeRange) {
	key := models.CacheKey(assetID, r)

	f.mu.Lock()
	call, ok := f.inflight[key]
	delete(f.inflight, key)
	f.mu.Unlock()

	if ok {
		call.cancel()
		f.logger.Debug().Str("key", key).Msg("In-flight fetch aborted")
	}
	f.group.Forget(key)
}

// Close aborts every in-flight request and waits for them to return.
// Later fetches fail with context.Canceled.
func (f *Fetcher) Close() {
	f.mu.Lock()
	f.closed = true
	for _, call := range f.inflight {
		call.cancel()
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *Fetcher) track(key string, call *inflightCall) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.inflight[key] = call
	f.wg.Add(1)
	return true
}

func (f *Fetcher) untrack(key string, call *inflightCall) {
	f.mu.Lock()
	if f.inflight[key] == call {
		delete(f.inflight, key)
	}
	f.mu.Unlock()
}

func (f *Fetcher) fetch(ctx context.Context, assetID string, r models.TimeRange) (models.Series, error) {
	days := CoinGeckoDays(r)
	start := time.Now()

	f.logger.Debug().Str("asset", assetID).Str("range", string(r)).Str("days", days).Msg("Fetching market chart")

	payload, err := f.client.GetMarketChart(ctx, assetID,
		interfaces.WithVsCurrency("usd"),
		interfaces.WithDays(days),
		interfaces.WithInterval("daily"),
		interfaces.WithDemoAPIKey(f.demoAPIKey(ctx)),
	)
	if err != nil {
		classified := classify(err)
		f.logger.Warn().Err(err).
			Str("asset", assetID).
			Str("range", string(r)).
			Dur("elapsed", time.Since(start)).
			Msg("Market chart fetch failed")
		return nil, classified
	}

	series := NormalizePrices(payload)
	dropped := len(payload.Prices) - len(series)

	f.logger.Debug().
		Str("asset", assetID).
		Str("range", string(r)).
		Int("points", len(series)).
		Int("dropped", dropped).
		Dur("elapsed", time.Since(start)).
		Msg("Market chart fetched")

	return series, nil
}

// demoAPIKey prefers the stored preference over the configured default.
func (f *Fetcher) demoAPIKey(ctx context.Context) string {
	if f.prefs != nil {
		if key, err := f.prefs.Get(ctx, models.PrefDemoAPIKey); err == nil {
			if key = strings.TrimSpace(key); key != "" {
				return key
			}
		}
	}
	return f.apiKey
}

// Ensure Fetcher implements SeriesFetcher
var _ interfaces.SeriesFetcher = (*Fetcher)(nil)
