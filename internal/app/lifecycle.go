package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// Start starts the River client so the periodic maintenance jobs (authz
// cache eviction, JWT blacklist pruning) begin running.
func (a *Application) Start(ctx context.Context) error {
	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Start(ctx); err != nil {
			return fmt.Errorf("start river client: %w", err)
		}
		logger.Info("river client started, periodic maintenance jobs will now run")
	}
	return nil
}

// Shutdown drains the River client and closes the connection pool. Callers
// give in-flight HTTP requests their own grace period before calling this
// (spec.md §5: "graceful shutdown on SIGTERM gives in-flight requests up to
// 30s, then broker/DB handles dropped last").
func (a *Application) Shutdown(ctx context.Context) {
	if a.DB != nil && a.DB.RiverClient != nil {
		if err := a.DB.RiverClient.Stop(ctx); err != nil {
			logger.Error("failed to stop river client", zap.Error(err))
		} else {
			logger.Info("river client stopped")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
