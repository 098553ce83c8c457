package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalJobSingleFlight(t *testing.T) {
	s := New(context.Background())

	release := make(chan struct{})
	var runs atomic.Int32
	s.Register(JobFullSweep, func(ctx context.Context, _ string) error {
		runs.Add(1)
		<-release
		return nil
	})

	require.NoError(t, s.Submit(JobFullSweep, ""))

	// Give the first submission time to take the lock.
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	err := s.Submit(JobFullSweep, "")
	assert.ErrorIs(t, err, ErrAlreadyRunning, "duplicate global job must be rejected, not queued")

	close(release)
	s.Shutdown(time.Second)
	assert.Equal(t, int32(1), runs.Load(), "exactly one execution")
}

func TestPerIDJobsLockIndependently(t *testing.T) {
	s := New(context.Background())

	release := make(chan struct{})
	var runs atomic.Int32
	s.Register(JobAddMovie, func(ctx context.Context, payload string) error {
		runs.Add(1)
		<-release
		return nil
	})

	require.NoError(t, s.Submit(JobAddMovie, "603"))
	require.NoError(t, s.Submit(JobAddMovie, "604"), "different ids run in parallel")

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)

	err := s.Submit(JobAddMovie, "603")
	assert.ErrorIs(t, err, ErrAlreadyRunning, "same id must be serialized")

	close(release)
	s.Shutdown(time.Second)
}

func TestLockReleasedAfterCompletion(t *testing.T) {
	s := New(context.Background())

	var runs atomic.Int32
	s.Register(JobChangesSync, func(ctx context.Context, _ string) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, s.Submit(JobChangesSync, ""))
	assert.Eventually(t, func() bool {
		return s.Submit(JobChangesSync, "") == nil
	}, time.Second, 5*time.Millisecond, "lock must release once the job finishes")

	s.Shutdown(time.Second)
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestFailureHookInvoked(t *testing.T) {
	s := New(context.Background())

	failures := make(chan string, 1)
	s.OnFailure = func(kind string, err error) {
		failures <- kind
	}
	s.Register(JobMissingIDs, func(ctx context.Context, _ string) error {
		return assert.AnError
	})

	require.NoError(t, s.Submit(JobMissingIDs, ""))
	select {
	case kind := <-failures:
		assert.Equal(t, JobMissingIDs, kind)
	case <-time.After(time.Second):
		t.Fatal("failure hook not invoked")
	}
	s.Shutdown(time.Second)
}

func TestUnknownJobKind(t *testing.T) {
	s := New(context.Background())
	assert.Error(t, s.Submit("definitely_not_a_job", ""))
}

func TestScheduleDisabledTokens(t *testing.T) {
	for _, token := range []string{"", "false", "off", "disable", "disabled", "no",
		"FALSE", "Off", "DISABLED", "No", " disabled "} {
		assert.True(t, ScheduleDisabled(token), "token %q must disable the schedule", token)
	}
	for _, expr := range []string{"0 3 * * *", "*/5 * * * *", "15 4 * * 0"} {
		assert.False(t, ScheduleDisabled(expr), "expression %q must stay active", expr)
	}
}

func TestStartCronSkipsInvalidExpression(t *testing.T) {
	s := New(context.Background())
	s.Register(JobFullSweep, func(ctx context.Context, _ string) error { return nil })

	// Must not panic and must not schedule the broken entry.
	s.StartCron(map[string]string{
		JobFullSweep:   "not a cron line",
		JobMissingIDs:  "disabled",
		JobChangesSync: "off",
	})
	s.Shutdown(time.Millisecond)
}
