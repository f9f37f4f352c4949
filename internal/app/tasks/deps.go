// Package tasks implements the scheduled housekeeping tasks of the bot
// builder, along with their dependencies and registration.
package tasks

import (
	"log/slog"

	"github.com/edgard/botbuilder/internal/config"
)

// SessionSweeper drops idle visitor sessions.
type SessionSweeper interface {
	Sweep() int
	Len() int
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Sessions SessionSweeper
	Config   *config.Config
}
