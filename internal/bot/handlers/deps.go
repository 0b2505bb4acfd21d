package handlers

import (
	"context"
	"log/slog"

	"github.com/candlebot/candlebot/internal/bot"
	"github.com/candlebot/candlebot/internal/config"
	"github.com/candlebot/candlebot/internal/database"
)

// Dispatcher fires one synchronous execution of a named job. The scheduler
// implements it.
type Dispatcher interface {
	RunOnce(ctx context.Context, name, trigger string) error
	Jobs() []bot.JobStatus
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Store      database.Store
	Dispatcher Dispatcher
}
