package tasks

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botbuilder/internal/config"
)

type fakeSweeper struct {
	sweeps int
	left   int
}

func (f *fakeSweeper) Sweep() int {
	f.sweeps++
	return 3
}

func (f *fakeSweeper) Len() int { return f.left }

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	sweeper := &fakeSweeper{left: 2}
	tasks := RegisterAllTasks(TaskDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sessions: sweeper,
	})

	sweep, ok := tasks[config.SessionSweepTask]
	require.True(t, ok)
	require.NoError(t, sweep(context.Background()))
	assert.Equal(t, 1, sweeper.sweeps)
}

func TestSessionSweepTask_CancelledContext(t *testing.T) {
	t.Parallel()

	sweeper := &fakeSweeper{}
	task := newSessionSweepTask(TaskDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Sessions: sweeper,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, task(ctx), context.Canceled)
	assert.Zero(t, sweeper.sweeps)
}
