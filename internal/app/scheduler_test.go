package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botbuilder/internal/app/tasks"
	"github.com/edgard/botbuilder/internal/config"
)

func TestScheduler_StartSchedulesEnabledTasks(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"tick": func(context.Context) error {
			runs.Add(1)
			return nil
		},
		"idle": func(context.Context) error { return nil },
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"tick":    {Enabled: true, Schedule: "* * * * * *"},
		"idle":    {Enabled: false, Schedule: "* * * * * *"},
		"missing": {Enabled: true, Schedule: "* * * * * *"},
	}}

	s, err := NewScheduler(discardLogger(), cfg, taskMap)
	require.NoError(t, err)

	n, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Start()
	assert.Error(t, err, "second start must fail")

	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestScheduler_InvalidScheduleIsSkipped(t *testing.T) {
	t.Parallel()

	taskMap := map[string]tasks.ScheduledTaskFunc{"bad": func(context.Context) error { return nil }}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"bad": {Enabled: true, Schedule: "not a cron"},
	}}

	s, err := NewScheduler(discardLogger(), cfg, taskMap)
	require.NoError(t, err)

	n, err := s.Start()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, s.Stop())
}

func TestScheduler_StopWhenNotRunning(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(discardLogger(), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}
