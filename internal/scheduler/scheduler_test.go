package scheduler

import (
	"testing"

	"parkit-backend/internal/config"
	"parkit-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		CompleteElapsedOrders: "0 */5 * * * *",
		SweepCapacityIntents:  "30 * * * * *",
	}}

	s, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Len(t, s.cron.Entries(), 2)
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		CompleteElapsedOrders: "every now and then",
		SweepCapacityIntents:  "30 * * * * *",
	}}

	_, err := NewScheduler(jobs.NewJobRunner(nil, cfg))
	assert.ErrorContains(t, err, "CompleteElapsedOrders")
}
