package jobs

import (
	"context"
	"fmt"
	"time"

	"parkit-backend/internal/config"
	"parkit-backend/internal/logger"
	"parkit-backend/internal/metrics"
	"parkit-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	booking service.BookingService
	config  *config.Config
	now     func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(booking service.BookingService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		booking: booking,
		config:  cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		metrics.Booking().ObserveJob(jobName, err)
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	if err = jobFunc(context.Background()); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// RunAll runs every booking job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SweepCapacityIntents()
	jr.CompleteElapsedOrders()
}
