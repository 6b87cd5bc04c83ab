package main

import (
	"context"
	"time"

	"ravello/pkg/logger"
)

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// runHousekeeping purges expired one time codes and their pending
// registrations every interval until ctx is cancelled.
func runHousekeeping(ctx context.Context, every time.Duration, purger expiredPurger) {
	if every <= 0 {
		logger.Warn("Housekeeping disabled", "interval", every)
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, every)
			n, err := purger.PurgeExpired(runCtx)
			cancel()
			if err != nil {
				logger.Warn("Housekeeping run failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("Purged expired verification codes", "count", n)
			}
		}
	}
}
