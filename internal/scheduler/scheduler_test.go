package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/testhelpers"
)

func newTestScheduler() *Scheduler {
	return New(func() {}, testhelpers.NewTestLogger())
}

func TestApply_KnownSchedules(t *testing.T) {
	s := newTestScheduler()

	for _, schedule := range []string{ScheduleHourly, ScheduleDaily, ScheduleWeekly} {
		require.NoError(t, s.Apply(schedule))
		assert.True(t, s.active, schedule)
		assert.Len(t, s.cron.Entries(), 1, schedule)
	}
}

func TestApply_OffClearsEntry(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Apply(ScheduleDaily))

	require.NoError(t, s.Apply(ScheduleOff))
	assert.False(t, s.active)
	assert.Empty(t, s.cron.Entries())

	// Empty string is the same as off.
	require.NoError(t, s.Apply(ScheduleDaily))
	require.NoError(t, s.Apply(""))
	assert.Empty(t, s.cron.Entries())
}

func TestApply_UnknownSchedule(t *testing.T) {
	s := newTestScheduler()

	err := s.Apply("fortnightly")
	assert.Error(t, err)
	assert.False(t, s.active)
}

func TestApply_RescheduleReplacesEntry(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Apply(ScheduleHourly))
	first := s.entryID
	require.NoError(t, s.Apply(ScheduleWeekly))

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	assert.NotEqual(t, first, entries[0].ID)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Apply(ScheduleDaily))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
