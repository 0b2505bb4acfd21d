package bot_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/candlebot/candlebot/internal/bot"
	"github.com/candlebot/candlebot/internal/bot/tasks"
	"github.com/candlebot/candlebot/internal/config"
	"github.com/candlebot/candlebot/internal/database"
	"github.com/candlebot/candlebot/internal/runner"
)

type recordingStore struct {
	database.Store

	runs []database.TaskRun
}

func (s *recordingStore) RecordTaskRun(_ context.Context, run *database.TaskRun) error {
	s.runs = append(s.runs, *run)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScheduler(t *testing.T, jobs map[string]config.JobConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*bot.Scheduler, *recordingStore) {
	t.Helper()

	store := &recordingStore{}
	log := discardLogger()
	sched, err := bot.NewScheduler(log, jobs, taskMap, runner.NewRunner(log), store, nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	return sched, store
}

func TestRunOnceRecordsBuiltinRun(t *testing.T) {
	var calls int
	jobs := map[string]config.JobConfig{
		"market_scan": {Schedule: "* * * * *", Enabled: true, Builtin: "market_scan"},
	}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"market_scan": func(context.Context) error { calls++; return nil },
	}
	sched, store := newTestScheduler(t, jobs, taskMap)

	if err := sched.RunOnce(context.Background(), "market_scan", database.TriggerManual); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}

	if calls != 1 {
		t.Errorf("task ran %d times, want 1", calls)
	}
	if len(store.runs) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(store.runs))
	}
	run := store.runs[0]
	if run.JobName != "market_scan" || run.Trigger != database.TriggerManual {
		t.Errorf("run = %+v, want manual market_scan", run)
	}
	if run.Status != database.StatusSuccess {
		t.Errorf("run status = %q, want success", run.Status)
	}
	if run.StartedAt.IsZero() || run.FinishedAt.Before(run.StartedAt) {
		t.Errorf("run timing not recorded: started %v finished %v", run.StartedAt, run.FinishedAt)
	}
}

func TestRunOnceUnknownJob(t *testing.T) {
	sched, store := newTestScheduler(t, map[string]config.JobConfig{}, nil)

	if err := sched.RunOnce(context.Background(), "nope", database.TriggerManual); err == nil {
		t.Error("RunOnce accepted unknown job")
	}
	if len(store.runs) != 0 {
		t.Errorf("recorded %d runs for unknown job, want 0", len(store.runs))
	}
}

func TestRunOnceIgnoresDisabledFlag(t *testing.T) {
	jobs := map[string]config.JobConfig{
		"daily_digest": {Schedule: "0 8 * * *", Enabled: false, Builtin: "daily_digest"},
	}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"daily_digest": func(context.Context) error { return nil },
	}
	sched, store := newTestScheduler(t, jobs, taskMap)

	if err := sched.RunOnce(context.Background(), "daily_digest", database.TriggerChat); err != nil {
		t.Fatalf("RunOnce of disabled job returned error: %v", err)
	}
	if len(store.runs) != 1 || store.runs[0].Trigger != database.TriggerChat {
		t.Errorf("runs = %+v, want one chat-triggered run", store.runs)
	}
}

func TestRunOnceClassifiesBuiltinOutcomes(t *testing.T) {
	testCases := []struct {
		name       string
		taskErr    error
		wantStatus string
	}{
		{name: "failure", taskErr: errors.New("scan blew up"), wantStatus: database.StatusFailure},
		{name: "timeout", taskErr: fmt.Errorf("fetch: %w", context.DeadlineExceeded), wantStatus: database.StatusTimeout},
		{name: "canceled", taskErr: fmt.Errorf("fetch: %w", context.Canceled), wantStatus: database.StatusCanceled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			jobs := map[string]config.JobConfig{
				"market_scan": {Schedule: "* * * * *", Enabled: true, Builtin: "market_scan"},
			}
			taskMap := map[string]tasks.ScheduledTaskFunc{
				"market_scan": func(context.Context) error { return tc.taskErr },
			}
			sched, store := newTestScheduler(t, jobs, taskMap)

			err := sched.RunOnce(context.Background(), "market_scan", database.TriggerManual)
			if err == nil {
				t.Fatal("RunOnce returned nil for a failing task")
			}
			if len(store.runs) != 1 {
				t.Fatalf("recorded %d runs, want 1", len(store.runs))
			}
			run := store.runs[0]
			if run.Status != tc.wantStatus {
				t.Errorf("run status = %q, want %q", run.Status, tc.wantStatus)
			}
			if run.Error == "" {
				t.Error("run error message not recorded")
			}
		})
	}
}

func TestRunOnceCommandJob(t *testing.T) {
	jobs := map[string]config.JobConfig{
		"legacy_bot": {
			Schedule: "* * * * *",
			Enabled:  true,
			Command: &config.CommandConfig{
				Setup: [][]string{{"true"}},
				Run:   []string{"sh", "-c", "echo scan complete"},
			},
		},
	}
	sched, store := newTestScheduler(t, jobs, nil)

	if err := sched.RunOnce(context.Background(), "legacy_bot", database.TriggerSchedule); err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}

	run := store.runs[0]
	if run.Status != database.StatusSuccess {
		t.Errorf("run status = %q, want success", run.Status)
	}
	if !strings.Contains(run.Output, "scan complete") {
		t.Errorf("run output = %q, want captured command output", run.Output)
	}
}

func TestRunOnceCommandJobFailure(t *testing.T) {
	jobs := map[string]config.JobConfig{
		"legacy_bot": {
			Schedule: "* * * * *",
			Enabled:  true,
			Command:  &config.CommandConfig{Run: []string{"sh", "-c", "exit 3"}},
		},
	}
	sched, store := newTestScheduler(t, jobs, nil)

	if err := sched.RunOnce(context.Background(), "legacy_bot", database.TriggerSchedule); err == nil {
		t.Fatal("RunOnce returned nil for a failing command")
	}
	if store.runs[0].Status != database.StatusFailure {
		t.Errorf("run status = %q, want failure", store.runs[0].Status)
	}
}

func TestJobsSnapshot(t *testing.T) {
	jobs := map[string]config.JobConfig{
		"market_scan":  {Schedule: "* * * * *", Enabled: true, Builtin: "market_scan"},
		"daily_digest": {Schedule: "0 8 * * *", Enabled: false, Builtin: "daily_digest"},
		"legacy_bot":   {Schedule: "*/5 * * * *", Enabled: true, Command: &config.CommandConfig{Run: []string{"true"}}},
	}
	sched, _ := newTestScheduler(t, jobs, map[string]tasks.ScheduledTaskFunc{
		"market_scan":  func(context.Context) error { return nil },
		"daily_digest": func(context.Context) error { return nil },
	})

	names := sched.JobNames()
	want := []string{"daily_digest", "legacy_bot", "market_scan"}
	if len(names) != len(want) {
		t.Fatalf("JobNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("JobNames = %v, want %v", names, want)
		}
	}

	statuses := sched.Jobs()
	byName := map[string]bot.JobStatus{}
	for _, st := range statuses {
		byName[st.Name] = st
	}
	if byName["legacy_bot"].Kind != "command" {
		t.Errorf("legacy_bot kind = %q, want command", byName["legacy_bot"].Kind)
	}
	if byName["market_scan"].Kind != "builtin" {
		t.Errorf("market_scan kind = %q, want builtin", byName["market_scan"].Kind)
	}
	if byName["daily_digest"].Enabled {
		t.Error("daily_digest should report disabled")
	}
}

func TestStartSkipsUnrunnableJobs(t *testing.T) {
	jobs := map[string]config.JobConfig{
		"disabled":   {Schedule: "* * * * *", Enabled: false, Builtin: "market_scan"},
		"unresolved": {Schedule: "* * * * *", Enabled: true, Builtin: "not_registered"},
	}
	sched, _ := newTestScheduler(t, jobs, map[string]tasks.ScheduledTaskFunc{})

	if err := sched.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := sched.Start(); err == nil {
		t.Error("second Start should fail while running")
	}
	if err := sched.Stop(); err != nil {
		t.Errorf("Stop returned error: %v", err)
	}
	// Stopping twice is a logged no-op.
	if err := sched.Stop(); err != nil {
		t.Errorf("second Stop returned error: %v", err)
	}
}
