package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/candlebot/candlebot/internal/bot/tasks"
	"github.com/candlebot/candlebot/internal/config"
	"github.com/candlebot/candlebot/internal/database"
	"github.com/candlebot/candlebot/internal/runner"
)

// Overlap modes for a job.
const (
	OverlapAllow = "allow"
	OverlapSkip  = "skip"
)

// JobStatus is a snapshot of one configured job for status reporting.
type JobStatus struct {
	Name     string
	Schedule string
	Enabled  bool
	Kind     string // "builtin" or "command"
	NextRun  time.Time
}

// Scheduler manages scheduled jobs using the gocron library. Each firing is
// independent and stateless: the scheduler never consults run history to
// decide whether to fire, and a failed run never stops it. Overlapping
// firings are allowed unless a job opts into skip mode.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	jobs      map[string]config.JobConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	runner    *runner.Runner
	store     database.Store
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(
	logger *slog.Logger,
	jobs map[string]config.JobConfig,
	taskMap map[string]tasks.ScheduledTaskFunc,
	cmdRunner *runner.Runner,
	store database.Store,
	gocronLogger gocron.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")

	opts := []gocron.SchedulerOption{}
	if gocronLogger != nil {
		opts = append(opts, gocron.WithLogger(gocronLogger))
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		jobs:      jobs,
		taskMap:   taskMap,
		runner:    cmdRunner,
		store:     store,
	}, nil
}

// Start registers all enabled jobs and starts the scheduler's internal
// ticking. After startup it logs each job's literal schedule and computed
// next run, so a schedule that fires more often than intended is visible
// to the operator rather than silently corrected.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.logger.Debug("Configuring scheduler jobs...")

	scheduledCount := 0
	for name, job := range s.jobs {
		if !job.Enabled {
			s.logger.Info("Skipping disabled job", "job_name", name)
			continue
		}

		if _, err := s.resolveJob(name, job); err != nil {
			s.logger.Warn("Job configured but not runnable, skipping", "job_name", name, "error", err)
			continue
		}

		jobOpts := []gocron.JobOption{gocron.WithName(name)}
		if job.Overlap == OverlapSkip {
			jobOpts = append(jobOpts, gocron.WithSingletonMode(gocron.LimitModeReschedule))
		}

		jobName := name
		_, err := s.scheduler.NewJob(
			gocron.CronJob(job.Schedule, false),
			gocron.NewTask(func(ctx context.Context) {
				// Errors are classified and recorded by runJob; a failing
				// run must not disturb the scheduler.
				_ = s.runJob(ctx, jobName, database.TriggerSchedule)
			}, context.Background()),
			jobOpts...,
		)
		if err != nil {
			s.logger.Error("Failed to schedule job", "job_name", name, "schedule", job.Schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled job", "job_name", name, "schedule", job.Schedule, "overlap", overlapOrDefault(job.Overlap))
		scheduledCount++
	}

	s.scheduler.Start()
	s.running = true

	for _, j := range s.scheduler.Jobs() {
		if next, err := j.NextRun(); err == nil {
			s.logger.Info("Job next run", "job_name", j.Name(), "next_run", next)
		}
	}

	s.logger.Info("Scheduler initialized and started", "jobs_scheduled", scheduledCount)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}

// RunOnce performs exactly one synchronous execution of the named job with
// the given trigger source. It works whether or not the scheduler is
// started, and ignores the job's enabled flag: an explicit dispatch always
// runs.
func (s *Scheduler) RunOnce(ctx context.Context, name, trigger string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	if _, err := s.resolveJob(name, job); err != nil {
		return err
	}
	return s.runJob(ctx, name, trigger)
}

// JobNames returns the configured job names, sorted.
func (s *Scheduler) JobNames() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Jobs returns a status snapshot of all configured jobs, sorted by name.
// NextRun is zero for disabled or unstarted jobs.
func (s *Scheduler) Jobs() []JobStatus {
	nextRuns := map[string]time.Time{}
	for _, j := range s.scheduler.Jobs() {
		if next, err := j.NextRun(); err == nil {
			nextRuns[j.Name()] = next
		}
	}

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, name := range s.JobNames() {
		job := s.jobs[name]
		kind := "builtin"
		if job.Command != nil {
			kind = "command"
		}
		statuses = append(statuses, JobStatus{
			Name:     name,
			Schedule: job.Schedule,
			Enabled:  job.Enabled,
			Kind:     kind,
			NextRun:  nextRuns[name],
		})
	}
	return statuses
}

// resolveJob checks that a job maps onto something runnable: a registered
// builtin task or a command spec.
func (s *Scheduler) resolveJob(name string, job config.JobConfig) (tasks.ScheduledTaskFunc, error) {
	if job.Command != nil {
		return nil, nil
	}
	taskFunc, ok := s.taskMap[job.Builtin]
	if !ok {
		return nil, fmt.Errorf("job %q references unregistered builtin task %q", name, job.Builtin)
	}
	return taskFunc, nil
}

// runJob executes one firing of a job: idle -> triggered -> running -> idle.
// The outcome is classified, logged, and appended to the run history. The
// returned error reflects the run outcome; recording problems are only
// logged.
func (s *Scheduler) runJob(ctx context.Context, name, trigger string) error {
	log := s.logger.With("job_name", name, "trigger", trigger)
	log.InfoContext(ctx, "Running job")

	job := s.jobs[name]
	startTime := time.Now()

	run := &database.TaskRun{
		JobName:   name,
		Trigger:   trigger,
		StartedAt: startTime.UTC(),
	}

	var runErr error
	if job.Command != nil {
		res, err := s.runner.Run(ctx, runner.Spec{
			Name:    name,
			Setup:   job.Command.Setup,
			Run:     job.Command.Run,
			Env:     job.Command.Env,
			Workdir: job.Command.Workdir,
			Timeout: job.Command.Timeout,
		})
		if err != nil {
			run.Status = database.StatusFailure
			run.Error = err.Error()
			runErr = err
		} else {
			run.Status = res.State
			run.Output = res.Output
			run.Error = res.Error
			if res.Failed() {
				runErr = fmt.Errorf("job %q ended with state %s: %s", name, res.State, res.Error)
			}
		}
	} else {
		taskFunc := s.taskMap[job.Builtin]
		err := taskFunc(ctx)
		switch {
		case err == nil:
			run.Status = database.StatusSuccess
		case errors.Is(err, context.DeadlineExceeded):
			run.Status = database.StatusTimeout
			run.Error = err.Error()
			runErr = err
		case errors.Is(err, context.Canceled):
			run.Status = database.StatusCanceled
			run.Error = err.Error()
			runErr = err
		default:
			run.Status = database.StatusFailure
			run.Error = err.Error()
			runErr = err
		}
	}

	duration := time.Since(startTime)
	run.FinishedAt = run.StartedAt.Add(duration)
	run.DurationMS = duration.Milliseconds()

	// Run recording must survive the cancellation that ended the run.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.store.RecordTaskRun(recordCtx, run); err != nil {
		log.ErrorContext(ctx, "Failed to record task run", "error", err)
	}

	if runErr != nil {
		log.ErrorContext(ctx, "Job failed", "status", run.Status, "error", runErr, "duration", duration)
		return runErr
	}

	log.InfoContext(ctx, "Job finished", "status", run.Status, "duration", duration)
	return nil
}

func overlapOrDefault(mode string) string {
	if mode == "" {
		return OverlapAllow
	}
	return mode
}
