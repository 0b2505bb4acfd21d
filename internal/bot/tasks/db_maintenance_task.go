package tasks

import (
	"context"
	"fmt"
	"time"
)

// newDBMaintenanceTask creates the scheduled task that prunes run history
// and signals past the retention window, then runs database maintenance.
func newDBMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "db_maintenance")
	retention := deps.Config.Maintenance.RetentionDays

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting database maintenance task...", "retention_days", retention)
		startTime := time.Now()

		cutoff := time.Now().UTC().AddDate(0, 0, -retention)
		deleted, err := deps.Store.DeleteOldRecords(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Retention cleanup failed", "error", err)
			return fmt.Errorf("retention cleanup failed: %w", err)
		}

		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Database maintenance task completed",
			"rows_deleted", deleted, "duration", time.Since(startTime))
		return nil
	}
}
