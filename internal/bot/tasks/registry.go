package tasks

import (
	"context"

	"github.com/candlebot/candlebot/internal/config"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
// Tasks return an error so the scheduler can classify the run.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks initializes and returns a map of all builtin tasks.
// The keys are the names jobs reference through their 'builtin' field.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		config.TaskMarketScan:    newMarketScanTask(deps),
		config.TaskDailyDigest:   newDailyDigestTask(deps),
		config.TaskDBMaintenance: newDBMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized builtin tasks", "count", len(tasks))
	return tasks
}
