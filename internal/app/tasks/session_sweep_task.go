package tasks

import (
	"context"
	"time"
)

// newSessionSweepTask creates the task that forgets idle visitor sessions.
func newSessionSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_sweep")

	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		startTime := time.Now()
		removed := deps.Sessions.Sweep()

		log.DebugContext(ctx, "Session sweep completed",
			"removed", removed,
			"remaining", deps.Sessions.Len(),
			"duration", time.Since(startTime))
		return nil
	}
}
