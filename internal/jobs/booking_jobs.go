package jobs

import (
	"context"

	"parkit-backend/internal/logger"
)

// CompleteElapsedOrders moves orders whose window has ended to completed.
// It drains in batches so one run catches up after downtime. Orders that
// fail are skipped for the rest of the run and retried by the next one.
func (jr *JobRunner) CompleteElapsedOrders() {
	jr.runWithRecovery("CompleteElapsedOrders", func(ctx context.Context) error {
		batch := jr.config.Booking.ElapseBatchSize
		now := jr.now()
		total := 0
		var failed []string
		for {
			report, err := jr.booking.CompleteElapsedOrders(ctx, now, failed, batch)
			total += report.Completed
			failed = append(failed, report.FailedIDs...)
			if err != nil {
				return err
			}
			// a short batch means nothing is left to drain
			if report.Listed() < batch {
				break
			}
		}
		if len(failed) > 0 {
			logger.Warn("Elapsed orders left for the next run", "failed", len(failed))
		}
		logger.Info("Completed elapsed orders", "count", total)
		return nil
	})
}

// SweepCapacityIntents repairs capacity intents that a crashed or failed
// request left behind.
func (jr *JobRunner) SweepCapacityIntents() {
	jr.runWithRecovery("SweepCapacityIntents", func(ctx context.Context) error {
		olderThan := jr.now().Add(-jr.config.IntentSweepAge())
		report, err := jr.booking.SweepCapacityIntents(ctx, olderThan, jr.config.Booking.SweepBatchSize)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			logger.Warn("Capacity intent sweep left failures for the next run", "failed", report.Failed)
		}
		return nil
	})
}
