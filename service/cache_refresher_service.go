package services

import (
	"log"

	"github.com/robfig/cron/v3"

	"sched-server/cache"
)

// CacheRefresherService periodically refetches every resident period from
// the data source. Reconciliation only patches entries that exist, so an
// event racing an in-flight prefetch can be lost for that period; the
// scheduled refetch is what heals those gaps with authoritative state.
type CacheRefresherService struct {
	window   *cache.WindowManager
	prefetch *PrefetchService
	cron     *cron.Cron
}

// NewCacheRefresherService constructs a refresher over the current window.
func NewCacheRefresherService(window *cache.WindowManager, prefetch *PrefetchService) *CacheRefresherService {
	return &CacheRefresherService{
		window:   window,
		prefetch: prefetch,
	}
}

// StartPeriodicJob schedules RefreshResidentPeriods on the cron spec
// (e.g. "*/30 * * * *") and starts the scheduler.
func (cr *CacheRefresherService) StartPeriodicJob(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, cr.RefreshResidentPeriods); err != nil {
		return err
	}
	c.Start()
	cr.cron = c
	log.Printf("[CacheRefresherService] Periodic refresh scheduled: %s", spec)
	return nil
}

// Stop halts the scheduler; the in-flight refresh, if any, completes.
func (cr *CacheRefresherService) Stop() {
	if cr.cron != nil {
		cr.cron.Stop()
	}
}

// RefreshResidentPeriods refetches every currently resident period.
func (cr *CacheRefresherService) RefreshResidentPeriods() {
	view := cr.window.View()
	if view == "" {
		log.Println("[CacheRefresherService] No window planned yet; nothing to refresh.")
		return
	}
	roam := cr.window.Roam()
	keys := cr.window.Resident()
	log.Printf("[CacheRefresherService] Refreshing %d resident periods", len(keys))
	for _, key := range keys {
		cr.prefetch.RefreshPeriod(view, key, roam)
	}
	log.Println("[CacheRefresherService] Refresh completed.")
}
