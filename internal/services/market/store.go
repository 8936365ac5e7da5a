package market

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
)

// Store owns the dashboard's selection state and orchestrates fetches.
// A completed fetch is applied only while its (asset, range) pair is still
// selected; results for superseded pairs are cached and otherwise dropped.
// Subscribers are notified once per mutation, in mutation order, without the
// state lock held, so callbacks may call any Store method. Notifications
// raised while another goroutine is delivering are queued and delivered by it.
type Store struct {
	catalog     *catalog
	fetcher     interfaces.SeriesFetcher
	cache       *ResponseCache
	prefs       interfaces.PreferenceStore
	logger      *common.Logger
	cancelStale bool

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	state      models.SelectionState
	pending    *pendingFetch
	queue      []models.SelectionState
	delivering bool

	subsMu  sync.Mutex
	subs    map[int]func(models.SelectionState)
	nextSub int
}

type pendingFetch struct {
	assetID string
	r       models.TimeRange
	cancel  context.CancelFunc
}

// StoreOption configures the store
type StoreOption func(*Store)

// WithCatalog replaces the built-in asset catalog
func WithCatalog(assets []models.MarketAsset) StoreOption {
	return func(s *Store) {
		s.catalog = newCatalog(assets)
	}
}

// WithCache shares a response cache with other components
func WithCache(cache *ResponseCache) StoreOption {
	return func(s *Store) {
		s.cache = cache
	}
}

// WithPreferenceStore loads and persists the selected range
func WithPreferenceStore(prefs interfaces.PreferenceStore) StoreOption {
	return func(s *Store) {
		s.prefs = prefs
	}
}

// WithStoreLogger sets the logger
func WithStoreLogger(logger *common.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithCancelStale aborts superseded requests instead of only ignoring their results
func WithCancelStale(enabled bool) StoreOption {
	return func(s *Store) {
		s.cancelStale = enabled
	}
}

// NewStore creates a store. The initial range comes from the preference
// store when a valid value is persisted, otherwise month.
func NewStore(fetcher interfaces.SeriesFetcher, opts ...StoreOption) *Store {
	s := &Store{
		catalog: newCatalog(defaultCatalog),
		fetcher: fetcher,
		logger:  common.NewSilentLogger(),
		subs:    make(map[int]func(models.SelectionState)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewResponseCache()
	}
	s.baseCtx, s.stop = context.WithCancel(context.Background())

	s.state = models.SelectionState{
		Range:  s.loadRange(),
		Series: models.Series{},
	}
	return s
}

// Assets returns the catalog in display order
func (s *Store) Assets() []models.MarketAsset {
	return s.catalog.list()
}

// Asset looks up a catalog entry by ID
func (s *Store) Asset(id string) (models.MarketAsset, bool) {
	return s.catalog.get(id)
}

// Cache exposes the response cache
func (s *Store) Cache() *ResponseCache {
	return s.cache
}

// Snapshot returns a copy of the current selection state
func (s *Store) Snapshot() models.SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.SelectionState {
	snap := s.state
	if s.state.SelectedAsset != nil {
		a := *s.state.SelectedAsset
		snap.SelectedAsset = &a
	}
	snap.Series = s.state.Series.Clone()
	return snap
}

// SelectAsset makes asset current, clears the error and series, then loads
// the series for the current range from cache or the provider.
func (s *Store) SelectAsset(asset models.MarketAsset) {
	s.mu.Lock()
	a := asset
	s.state.SelectedAsset = &a
	s.state.Error = ""
	s.state.Series = models.Series{}
	s.fetchLocked(a, s.state.Range)

	s.logger.Info().Str("asset", a.ID).Str("range", string(s.state.Range)).Msg("Asset selected")
	s.unlockAndNotify()
}

// SelectAssetByID selects a catalog asset
func (s *Store) SelectAssetByID(id string) error {
	asset, ok := s.catalog.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	s.SelectAsset(asset)
	return nil
}

// SetRange changes the range, persists it, and refetches when an asset is selected.
func (s *Store) SetRange(r models.TimeRange) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRange, string(r))
	}

	s.mu.Lock()
	s.state.Range = r
	if s.state.SelectedAsset != nil {
		s.fetchLocked(*s.state.SelectedAsset, r)
	}
	s.logger.Info().Str("range", string(r)).Msg("Range changed")
	s.unlockAndNotify()

	s.persistRange(r)
	return nil
}

// fetchLocked serves (asset, r) from cache or starts a background fetch.
// Caller holds s.mu.
func (s *Store) fetchLocked(asset models.MarketAsset, r models.TimeRange) {
	s.cancelPendingLocked(asset.ID, r)

	if series, ok := s.cache.Get(asset.ID, r); ok {
		s.state.Series = series
		s.state.IsLoading = false
		s.state.Error = ""
		s.logger.Debug().Str("asset", asset.ID).Str("range", string(r)).Int("points", len(series)).Msg("Series served from cache")
		return
	}

	s.state.IsLoading = true
	s.state.Error = ""
	s.state.Series = models.Series{}

	if asset.Category != models.CategoryCrypto {
		fe := UnsupportedCategoryError(asset.Category)
		s.state.IsLoading = false
		s.state.Error = fe.Error()
		s.logger.Warn().Str("asset", asset.ID).Str("category", string(asset.Category)).Msg("No data source for category")
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	p := &pendingFetch{assetID: asset.ID, r: r, cancel: cancel}
	s.pending = p

	s.wg.Add(1)
	go s.runFetch(ctx, p, asset, r)
}

// cancelPendingLocked aborts the in-flight fetch when it targets another pair
// and cancel-stale is enabled.
func (s *Store) cancelPendingLocked(assetID string, r models.TimeRange) {
	p := s.pending
	if p == nil || (p.assetID == assetID && p.r == r) {
		return
	}
	s.pending = nil
	if !s.cancelStale {
		return
	}
	p.cancel()
	s.fetcher.Forget(p.assetID, p.r)
	s.logger.Debug().Str("asset", p.assetID).Str("range", string(p.r)).Msg("Superseded fetch cancelled")
}

func (s *Store) runFetch(ctx context.Context, p *pendingFetch, asset models.MarketAsset, r models.TimeRange) {
	defer s.wg.Done()
	defer p.cancel()

	start := time.Now()
	series, err := s.fetcher.Fetch(ctx, asset.ID, r)
	if err == nil && s.cache.Put(asset.ID, r, series) {
		s.logger.Debug().Str("key", models.CacheKey(asset.ID, r)).Int("points", len(series)).Msg("Series cached")
	}

	s.mu.Lock()
	if s.pending == p {
		s.pending = nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		s.mu.Unlock()
		s.logger.Debug().Str("asset", asset.ID).Str("range", string(r)).Msg("Cancelled fetch discarded")
		return
	}
	if !s.state.Matches(asset.ID, r) {
		s.mu.Unlock()
		s.logger.Debug().Str("asset", asset.ID).Str("range", string(r)).Msg("Stale fetch result dropped")
		return
	}

	s.state.IsLoading = false
	if err != nil {
		s.state.Error = err.Error()
		s.state.Series = models.Series{}
	} else {
		s.state.Error = ""
		s.state.Series = series.Clone()
	}

	s.logger.Info().
		Str("asset", asset.ID).
		Str("range", string(r)).
		Int("points", len(s.state.Series)).
		Bool("error", err != nil).
		Dur("elapsed", time.Since(start)).
		Msg("Fetch applied")
	s.unlockAndNotify()
}

// Prefetch loads (asset, r) into the cache without touching the selection.
func (s *Store) Prefetch(ctx context.Context, asset models.MarketAsset, r models.TimeRange) error {
	if s.cache.Has(asset.ID, r) {
		return nil
	}
	if asset.Category != models.CategoryCrypto {
		return UnsupportedCategoryError(asset.Category)
	}
	series, err := s.fetcher.Fetch(ctx, asset.ID, r)
	if err != nil {
		return err
	}
	s.cache.Put(asset.ID, r, series)
	return nil
}

// Subscribe registers fn for state notifications. The returned function removes it.
func (s *Store) Subscribe(fn func(models.SelectionState)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// unlockAndNotify bumps the version, queues the snapshot and releases s.mu.
// The first goroutine to find no delivery in progress drains the queue;
// snapshots are enqueued under s.mu, so they leave in Version order.
func (s *Store) unlockAndNotify() {
	s.state.Version++
	s.queue = append(s.queue, s.snapshotLocked())
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.delivering = false
			s.queue = nil
			s.mu.Unlock()
			panic(r)
		}
	}()

	for len(s.queue) > 0 {
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()
		s.deliver(batch)
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

func (s *Store) deliver(batch []models.SelectionState) {
	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(models.SelectionState), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, snap := range batch {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// Wait blocks until every background fetch has completed
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels background fetches and waits for them to exit
func (s *Store) Close() {
	s.stop()
	s.wg.Wait()
}

func (s *Store) loadRange() models.TimeRange {
	if s.prefs == nil {
		return models.DefaultTimeRange
	}
	v, err := s.prefs.Get(context.Background(), models.PrefRange)
	if err != nil {
		if !errors.Is(err, interfaces.ErrPreferenceNotFound) {
			s.logger.Warn().Err(err).Msg("Failed to load persisted range")
		}
		return models.DefaultTimeRange
	}
	r := models.TimeRangeOrDefault(v)
	if string(r) != v {
		s.logger.Warn().Str("value", v).Msg("Persisted range invalid, using default")
	}
	return r
}

func (s *Store) persistRange(r models.TimeRange) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.Set(context.Background(), models.PrefRange, string(r)); err != nil {
		s.logger.Warn().Err(err).Str("range", string(r)).Msg("Failed to persist range")
	}
}

// Ensure Store implements MarketDataStore
var _ interfaces.MarketDataStore = (*Store)(nil)
