package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerService_Schedule(t *testing.T) {
	env := setupServiceTestEnv(t)
	scheduler := NewSchedulerService(time.UTC)

	id, err := scheduler.ScheduleResetTokenPurge("@hourly", env.auth)
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = scheduler.Schedule("not a cron spec", func() {})
	assert.Error(t, err)

	scheduler.Start()
	scheduler.Stop()
}
