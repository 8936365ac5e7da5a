package app

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/marketview/internal/common"
	"github.com/bobmcallan/marketview/internal/interfaces"
	"github.com/bobmcallan/marketview/internal/models"
)

// warmTimeout bounds a single warming pass.
const warmTimeout = 5 * time.Minute

// warmCache prefetches every crypto catalog asset for the current range so the
// first selection renders from cache. Cache entries are only ever added.
func warmCache(ctx context.Context, store interfaces.MarketDataStore, logger *common.Logger) {
	start := time.Now()
	r := store.Snapshot().Range

	var warmed, failed int
	for _, asset := range store.Assets() {
		if asset.Category != models.CategoryCrypto {
			continue
		}
		if ctx.Err() != nil {
			logger.Info().Msg("Warm cache: cancelled")
			return
		}
		if err := store.Prefetch(ctx, asset, r); err != nil {
			failed++
			logger.Warn().Err(err).Str("asset", asset.ID).Str("range", string(r)).Msg("Warm cache: prefetch failed")
			continue
		}
		warmed++
	}

	logger.Info().
		Str("range", string(r)).
		Int("warmed", warmed).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}

// StartWarmCache runs one warming pass in the background and, when a schedule
// is configured, repeats it on that cron spec.
func (a *App) StartWarmCache() error {
	if !a.Config.WarmCache.Enabled || os.Getenv("MARKETVIEW_WARM_CACHE") == "off" {
		a.Logger.Info().Msg("Warm cache: disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.warmCancel = cancel

	run := func() {
		passCtx, passCancel := context.WithTimeout(ctx, warmTimeout)
		defer passCancel()
		warmCache(passCtx, a.Store, a.Logger)
	}

	if spec := a.Config.WarmCache.Schedule; spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, run); err != nil {
			cancel()
			a.warmCancel = nil
			return err
		}
		c.Start()
		a.warmCron = c
		a.Logger.Info().Str("schedule", spec).Msg("Warm cache: scheduled")
	}

	a.warmWG.Add(1)
	go func() {
		defer a.warmWG.Done()
		run()
	}()
	return nil
}

// stopWarmCache cancels any running pass and waits for it and the
// scheduler to exit.
func (a *App) stopWarmCache() {
	if a.warmCancel != nil {
		a.warmCancel()
		a.warmCancel = nil
	}
	if a.warmCron != nil {
		<-a.warmCron.Stop().Done()
		a.warmCron = nil
	}
	a.warmWG.Wait()
}
