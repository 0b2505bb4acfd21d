package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/candlebot/candlebot/internal/database"
)

// digestWindow is how far back the daily digest looks.
const digestWindow = 24 * time.Hour

// newDailyDigestTask creates the scheduled task that summarizes the last 24
// hours of runs and signals into one Telegram message. When a Gemini client
// is available the summary prose is model-written; otherwise (or when the
// model call fails) a plain formatted digest is sent.
func newDailyDigestTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_digest")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting daily digest task...")
		startTime := time.Now()
		since := startTime.Add(-digestWindow)

		runs, err := deps.Store.GetTaskRunsSince(ctx, since)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch task runs for digest", "error", err)
			return fmt.Errorf("failed to fetch task runs for digest: %w", err)
		}

		signals, err := deps.Store.GetSignalsSince(ctx, since)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch signals for digest", "error", err)
			return fmt.Errorf("failed to fetch signals for digest: %w", err)
		}

		stats := formatDigestStats(runs, signals)

		message := "📰 *Daily Digest*\n\n" + stats
		if deps.GeminiClient != nil {
			summary, err := deps.GeminiClient.GenerateDigest(ctx, stats)
			if err != nil {
				log.WarnContext(ctx, "Gemini digest generation failed, sending plain digest", "error", err)
			} else {
				message = "📰 *Daily Digest*\n\n" + summary
			}
		}

		if deps.Notifier == nil {
			log.InfoContext(ctx, "Delivery disabled, digest not sent", "length", len(message))
			return nil
		}
		if err := deps.Notifier.SendMarkdown(ctx, message); err != nil {
			log.ErrorContext(ctx, "Failed to deliver digest", "error", err)
			return fmt.Errorf("failed to deliver digest: %w", err)
		}

		log.InfoContext(ctx, "Daily digest task completed",
			"runs", len(runs), "signals", len(signals), "duration", time.Since(startTime))
		return nil
	}
}

// formatDigestStats renders the raw digest statistics block. It doubles as
// the plain-text digest body and the prompt payload for the Gemini writer.
func formatDigestStats(runs []database.TaskRun, signals []database.Signal) string {
	var sb strings.Builder

	statusCounts := map[string]int{}
	jobCounts := map[string]int{}
	for _, r := range runs {
		statusCounts[r.Status]++
		jobCounts[r.JobName]++
	}

	sb.WriteString(fmt.Sprintf("Runs: %d total", len(runs)))
	for _, status := range []string{database.StatusSuccess, database.StatusFailure, database.StatusTimeout, database.StatusCanceled} {
		if n := statusCounts[status]; n > 0 {
			sb.WriteString(fmt.Sprintf(", %d %s", n, status))
		}
	}
	sb.WriteString("\n")

	for job, n := range jobCounts {
		sb.WriteString(fmt.Sprintf("- `%s`: %d runs\n", job, n))
	}

	sb.WriteString(fmt.Sprintf("\nSignals: %d total\n", len(signals)))
	for _, s := range signals {
		note := ""
		if s.LowVolume {
			note = " (low volume)"
		}
		sb.WriteString(fmt.Sprintf("- `%s` %s%s at `%.5f`, RSI `%.1f`, %s\n",
			s.Symbol, strings.ToUpper(s.Direction), note, s.Price, s.RSI,
			s.CreatedAt.UTC().Format("15:04 MST")))
	}

	return sb.String()
}
