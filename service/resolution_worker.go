package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartResolutionWorker starts a background worker that periodically settles
// bets on closed blocks. Returns a cleanup function to stop the worker
// gracefully.
func StartResolutionWorker(ctx context.Context, resolution ResolutionService, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	stopChan := make(chan struct{})

	runOnce := func() {
		count, err := resolution.ResolveClosedBlocks(context.Background())
		if err != nil {
			log.WithError(err).Error("Resolution pass failed")
			return
		}
		if count > 0 {
			log.WithField("count", count).Debug("Resolution pass settled bets")
		}
	}

	go func() {
		log.Info("Resolution worker started")

		// Run immediately on startup
		runOnce()

		for {
			select {
			case <-ctx.Done():
				log.Info("Resolution worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Resolution worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}
