package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/auth"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// BlacklistPruneArgs is a periodic maintenance job that sweeps expired JWT
// revocation entries from the in-process blacklist (spec.md §5: "JWT
// blacklist: shared set; writes go through a mutex").
type BlacklistPruneArgs struct{}

func (BlacklistPruneArgs) Kind() string { return "jwt_blacklist_prune" }

func (BlacklistPruneArgs) InsertOpts() river.InsertOpts {
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

// BlacklistPruneWorker removes expired entries from a MemoryRevocationChecker.
// Only registered when jwt.revocation_backend is "memory"; the Redis-backed
// checker relies on TTL expiry instead.
type BlacklistPruneWorker struct {
	river.WorkerDefaults[BlacklistPruneArgs]
	checker *auth.MemoryRevocationChecker
}

func NewBlacklistPruneWorker(checker *auth.MemoryRevocationChecker) *BlacklistPruneWorker {
	return &BlacklistPruneWorker{checker: checker}
}

func (w *BlacklistPruneWorker) Work(_ context.Context, _ *river.Job[BlacklistPruneArgs]) error {
	if w.checker == nil {
		return nil
	}
	removed := w.checker.EvictExpired(time.Now())
	if removed > 0 {
		logger.Debug("jwt blacklist prune completed", zap.Int("removed", removed))
	}
	return nil
}
