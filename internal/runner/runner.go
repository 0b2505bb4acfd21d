// Package runner executes external entry-point jobs: it provisions a clean
// working directory, runs the declared setup commands in order, resolves
// secret environment values freshly, and invokes the entry point once.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a command run when the job declares no timeout.
const DefaultTimeout = 5 * time.Minute

// States of a finished command run.
const (
	StateSuccess  = "success"
	StateFailure  = "failure"
	StateTimeout  = "timeout"
	StateCanceled = "canceled"
)

// Spec describes one command job invocation.
type Spec struct {
	Name    string
	Setup   [][]string        // setup commands, run to completion in order before the entry point
	Run     []string          // entry-point argv
	Env     map[string]string // KEY -> value template; ${NAME} expands from the process environment
	Workdir string            // when empty, a fresh temporary directory is provisioned per run
	Timeout time.Duration     // zero means DefaultTimeout
}

// Result is the outcome of a command run. The runner never retries and
// never branches on the entry point's exit code beyond classifying the
// run's state.
type Result struct {
	State    string
	Output   string
	Error    string
	Duration time.Duration
}

// Failed reports whether the run ended in any non-success state.
func (r *Result) Failed() bool {
	return r.State != StateSuccess
}

// Runner executes command jobs.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a command runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger.With("component", "runner")}
}

// Run executes the spec: environment provisioning, setup commands, then the
// entry point. A setup failure aborts the remaining steps. The returned
// error is non-nil only for invocation-level problems (bad spec, workdir
// provisioning); command failures are reported through the Result.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if len(spec.Run) == 0 {
		return nil, fmt.Errorf("job %q has no entry point", spec.Name)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := r.logger.With("job", spec.Name)

	workdir := spec.Workdir
	if workdir == "" {
		tmp, err := os.MkdirTemp("", "candlebot-run-*")
		if err != nil {
			return nil, fmt.Errorf("failed to provision working directory for job %q: %w", spec.Name, err)
		}
		defer func() {
			if err := os.RemoveAll(tmp); err != nil {
				log.Warn("Failed to remove run working directory", "dir", tmp, "error", err)
			}
		}()
		workdir = tmp
	}

	// Secret values resolve freshly on every firing; unset references
	// expand to the empty string and the invocation still proceeds.
	env := os.Environ()
	for key, tmpl := range spec.Env {
		env = append(env, key+"="+os.Expand(tmpl, os.Getenv))
	}

	start := time.Now()
	var output strings.Builder

	for i, argv := range spec.Setup {
		if len(argv) == 0 {
			continue
		}
		log.InfoContext(runCtx, "Running setup command", "step", i+1, "command", argv[0])

		out, err := r.runCommand(runCtx, argv, workdir, env)
		output.Write(out)
		if err != nil {
			res := classify(runCtx, err, output.String(), time.Since(start))
			log.ErrorContext(ctx, "Setup command failed, aborting run",
				"step", i+1, "command", argv[0], "state", res.State, "error", err)
			return res, nil
		}
	}

	log.InfoContext(runCtx, "Invoking entry point", "command", spec.Run[0])
	out, err := r.runCommand(runCtx, spec.Run, workdir, env)
	output.Write(out)
	duration := time.Since(start)

	if err != nil {
		res := classify(runCtx, err, output.String(), duration)
		log.ErrorContext(ctx, "Entry point failed", "state", res.State, "error", err, "duration", duration)
		return res, nil
	}

	log.InfoContext(ctx, "Entry point finished", "duration", duration)
	return &Result{
		State:    StateSuccess,
		Output:   output.String(),
		Duration: duration,
	}, nil
}

func (r *Runner) runCommand(ctx context.Context, argv []string, dir string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	return cmd.CombinedOutput()
}

// classify maps a command error onto a run state, distinguishing timeouts
// and cancellation from ordinary failures.
func classify(ctx context.Context, err error, output string, duration time.Duration) *Result {
	state := StateFailure
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		state = StateTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		state = StateCanceled
	}
	return &Result{
		State:    state,
		Output:   output,
		Error:    err.Error(),
		Duration: duration,
	}
}
