package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/anetsop/rosterlab/pkg/logger"
	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

const (
	tailBytes = 4096
	// waitDelay bounds how long Wait blocks on pipes held open by
	// grandchildren (go run) after the direct child was killed
	waitDelay = 10 * time.Second
	// mtimeSlack tolerates coarse filesystem timestamps
	mtimeSlack = 2 * time.Second
)

// ProcessError describes a child that could not be started or exited non-zero
type ProcessError struct {
	Name     string
	ExitCode int // -1 when the process never ran to completion
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("optimizer run %s exited with code %d", e.Name, e.ExitCode)
	}
	return fmt.Sprintf("optimizer run %s failed: %v", e.Name, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Outcome is the result of one invocation, including every retry
type Outcome struct {
	Invocation Invocation
	Status     models.InvocationStatus
	// ExitCode is set whenever the last attempt ran to completion
	ExitCode   *int
	Stdout     string
	Stderr     string
	Attempts   int
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Duration is the wall-clock time spent on the invocation
func (o Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// Failure converts an unusable outcome into a summary entry
func (o Outcome) Failure() models.Failure {
	msg := ""
	if o.Err != nil {
		msg = o.Err.Error()
	}
	if o.Stderr != "" {
		msg += ": " + o.Stderr
	}
	return models.Failure{
		Kind:     models.FailureExternalProcess,
		Family:   o.Invocation.Family.Name,
		Seed:     o.Invocation.Seed,
		Params:   o.Invocation.Config.String(),
		Subject:  o.Invocation.OutputName,
		Status:   o.Status,
		ExitCode: o.ExitCode,
		Message:  msg,
	}
}

// Runner runs a single invocation
type Runner interface {
	Run(ctx context.Context, inv Invocation) Outcome
}

// Options configures a Dispatcher
type Options struct {
	// Command is the program and its leading arguments
	Command []string
	WorkDir string
	// Timeout applies to each attempt separately
	Timeout time.Duration
	Retries int
	Backoff utils.BackoffStrategy
	Logger  *slog.Logger
}

// Dispatcher runs optimizer invocations as child processes
type Dispatcher struct {
	command []string
	workDir string
	timeout time.Duration
	retries int
	backoff utils.BackoffStrategy
	logger  *slog.Logger
}

// New creates a dispatcher
func New(opts Options) (*Dispatcher, error) {
	if len(opts.Command) == 0 || opts.Command[0] == "" {
		return nil, fmt.Errorf("optimizer command cannot be empty")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", opts.Timeout)
	}
	if opts.Retries < 0 {
		return nil, fmt.Errorf("retries cannot be negative, got %d", opts.Retries)
	}
	if opts.Backoff == nil {
		opts.Backoff = &utils.ConstantBackoff{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default
	}
	return &Dispatcher{
		command: append([]string(nil), opts.Command...),
		workDir: opts.WorkDir,
		timeout: opts.Timeout,
		retries: opts.Retries,
		backoff: opts.Backoff,
		logger:  opts.Logger,
	}, nil
}

// Run executes the invocation, retrying failed attempts with backoff.
// Timed-out attempts and missing artifacts are not retried.
func (d *Dispatcher) Run(ctx context.Context, inv Invocation) Outcome {
	log := d.logger.With("family", inv.Family.Name, "seed", string(inv.Seed), "params", inv.Config.String())
	started := time.Now()

	var out Outcome
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			delay := d.backoff.NextDelay(attempt - 1)
			log.Warn("retrying optimizer run", "attempt", attempt+1, "delay", delay, "error", out.Err)
			if err := sleepContext(ctx, delay); err != nil {
				out.Err = fmt.Errorf("retry of %s aborted: %w", inv.OutputName, err)
				break
			}
		}
		out = d.attempt(ctx, inv, log)
		out.Attempts = attempt + 1
		if out.Status != models.InvocationFailed || ctx.Err() != nil {
			break
		}
	}

	out.Invocation = inv
	out.StartedAt = started
	out.FinishedAt = time.Now()
	return out
}

func (d *Dispatcher) attempt(ctx context.Context, inv Invocation, log *slog.Logger) Outcome {
	out := Outcome{Status: models.InvocationFailed}
	if err := ctx.Err(); err != nil {
		out.Err = fmt.Errorf("optimizer run %s not started: %w", inv.OutputName, err)
		return out
	}

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := append(append([]string(nil), d.command[1:]...), BuildArgs(inv)...)
	cmd := exec.CommandContext(runCtx, d.command[0], args...) // #nosec G204 -- structured arguments only
	cmd.Dir = d.workDir
	cmd.WaitDelay = waitDelay

	stdout := &tailBuffer{limit: tailBytes}
	stderr := &tailBuffer{limit: tailBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Info("starting optimizer run", "results", inv.OutputName)
	startedAt := time.Now()
	err := cmd.Run()
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()
	log.Debug("optimizer output", "stdout", out.Stdout, "stderr", out.Stderr)

	if cmd.ProcessState != nil && cmd.ProcessState.Exited() {
		code := cmd.ProcessState.ExitCode()
		out.ExitCode = &code
	}

	switch {
	case timedOut(err, runCtx, ctx):
		out.Status = models.InvocationTimedOut
		out.Err = fmt.Errorf("optimizer run %s timed out after %s", inv.OutputName, d.timeout)
	case err != nil:
		code := -1
		if out.ExitCode != nil {
			code = *out.ExitCode
		}
		if ctx.Err() != nil {
			err = errors.Join(err, ctx.Err())
		}
		out.Err = &ProcessError{Name: inv.OutputName, ExitCode: code, Stderr: out.Stderr, Err: err}
	default:
		if err := checkArtifact(inv.ArtifactPath, startedAt); err != nil {
			out.Status = models.InvocationMissingArtifact
			out.Err = err
			break
		}
		out.Status = models.InvocationSucceeded
	}

	if out.Status == models.InvocationSucceeded {
		log.Info("optimizer run succeeded", "results", inv.OutputName, "elapsed", utils.FormatDuration(time.Since(startedAt)))
	} else {
		log.Error("optimizer run failed", "results", inv.OutputName, "status", out.Status, "error", out.Err)
	}
	return out
}

// timedOut reports whether a failed run was killed by its own deadline.
// A child that exited cleanly counts as finished even if the deadline
// passed while Wait was returning.
func timedOut(runErr error, runCtx, parent context.Context) bool {
	return runErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil
}

// checkArtifact requires a regular file written during this attempt, so a
// stale file from an earlier batch does not mask a silent failure.
func checkArtifact(path string, startedAt time.Time) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("expected artifact %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("expected artifact %s is not a regular file", path)
	}
	if info.ModTime().Before(startedAt.Add(-mtimeSlack)) {
		return fmt.Errorf("artifact %s was not rewritten by this run", path)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string { return string(b.buf) }
