package usecase

import (
	"context"
	"time"
)

// RunReaper - evicts finished, unobserved sessions idle for longer than maxIdle,
// every interval, until ctx is done. A non-positive interval returns immediately.
func (that *gameUseCase) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		return
	}

	log := that.logger.With("method", "RunReaper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted := that.registry.Reap(now.Add(-maxIdle))
			if len(evicted) > 0 {
				log.Info("sessions evicted", "count", len(evicted), "sessionIDs", evicted)
			}
		}
	}
}
