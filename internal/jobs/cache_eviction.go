// Package jobs defines River Queue job types for periodic maintenance.
package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/authz"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// CacheEvictionArgs is a periodic maintenance job that sweeps expired
// authorization-decision cache entries (spec.md §4.10: "a background task
// evicts expired entries at a fixed interval").
type CacheEvictionArgs struct{}

func (CacheEvictionArgs) Kind() string { return "authz_cache_eviction" }

func (CacheEvictionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: time.Minute,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// CacheEvictionWorker removes expired entries from an authz.Cache.
type CacheEvictionWorker struct {
	river.WorkerDefaults[CacheEvictionArgs]
	cache *authz.Cache
}

func NewCacheEvictionWorker(cache *authz.Cache) *CacheEvictionWorker {
	return &CacheEvictionWorker{cache: cache}
}

func (w *CacheEvictionWorker) Work(_ context.Context, _ *river.Job[CacheEvictionArgs]) error {
	if w.cache == nil {
		return nil
	}
	removed := w.cache.EvictExpired(time.Now())
	if removed > 0 {
		logger.Debug("authz cache eviction completed", zap.Int("removed", removed))
	}
	return nil
}
