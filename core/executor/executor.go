// Package executor runs task lists: builtins in-process, external commands
// and pipelines as host processes, subshells as nested executors and
// background tasks as detached goroutines.
package executor

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/voltur/voltexec/core/console"
	"github.com/voltur/voltexec/core/task"
)

// Exit statuses produced by the executor itself rather than a child process.
const (
	StatusSuccess       = 0
	StatusFailure       = 1
	StatusMalformed     = 2
	StatusNotExecutable = 126
	StatusNotFound      = 127
	StatusSignalBase    = 128
)

// Executor runs task lists against a working directory.
//
// Background jobs share the executor's console streams with the foreground,
// so Stdout and Stderr must be safe for concurrent use; New arranges that.
type Executor struct {
	// Dir is the working directory for spawned processes, relative redirect
	// targets and cd. Only cd changes it.
	Dir string
	// Env is the environment for spawned processes and PATH lookup. Nil means
	// the host process environment.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Fs holds redirect targets and cd destinations.
	Fs      afero.Fs
	Printer console.Printer
	Logger  *zap.Logger
	// Exit terminates the host process for the exit builtin.
	Exit func(code int)
}

// New creates an Executor rooted at dir writing to the given console streams.
func New(dir string, stdin io.Reader, stdout, stderr io.Writer) *Executor {
	stdout, stderr = consoleWriters(stdout, stderr)
	return &Executor{
		Dir:     dir,
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
		Fs:      afero.NewOsFs(),
		Printer: console.Plain,
		Logger:  zap.NewNop(),
		Exit:    os.Exit,
	}
}

// ExecTasks runs tasks in order, gating each on the status of the last task
// that ran, and returns the final status.
func (e *Executor) ExecTasks(ctx context.Context, tasks []task.Task) int {
	status := StatusSuccess
	for i := range tasks {
		t := &tasks[i]
		if !t.RunIf.Admits(status) {
			e.logger().Debug("task skipped",
				zap.String("run_if", string(t.RunIf)),
				zap.Int("status", status))
			continue
		}
		status = e.execTask(ctx, t)
	}
	return status
}

func (e *Executor) execTask(ctx context.Context, t *task.Task) int {
	kind := t.EffectiveKind()
	e.logger().Debug("task dispatch",
		zap.String("kind", string(kind)),
		zap.Bool("background", t.Background),
		zap.String("task", t.String()))

	switch kind {
	case task.KindBuiltin:
		// Builtins always run in the foreground, even when marked background.
		return e.runCommand(ctx, t, e.Stdin)

	case task.KindSubshell:
		if t.Background {
			e.launch(ctx, t, func(ctx context.Context, job *Executor) int {
				return job.runSubshell(ctx, t, nil)
			})
			return StatusSuccess
		}
		return e.runSubshell(ctx, t, e.Stdin)

	case task.KindExternal:
		if t.Background {
			e.launch(ctx, t, func(ctx context.Context, job *Executor) int {
				return job.runCommand(ctx, t, nil)
			})
			return StatusSuccess
		}
		return e.runCommand(ctx, t, e.Stdin)

	default:
		e.Printer.Error(e.stderr(), "%s: unknown task type", kind)
		return StatusMalformed
	}
}

// runSubshell runs the nested list on a copy of the executor, so directory
// changes made inside stay inside.
func (e *Executor) runSubshell(ctx context.Context, t *task.Task, stdin io.Reader) int {
	child := *e
	child.Stdin = stdin

	if t.Stdout != "" {
		target, err := e.openTarget(t.Stdout, t.Append)
		if err != nil {
			e.Printer.Error(e.stderr(), "%s", pathMessage(t.Stdout, err))
			return StatusFailure
		}
		defer target.Close()
		// Lock shared with the nested list's own background jobs.
		child.Stdout, _ = consoleWriters(target, nil)
	}

	return child.ExecTasks(ctx, t.Tasks)
}

// launch starts run on a detached goroutine with a snapshot of the executor,
// so later foreground cd calls do not move it. The job is never joined and
// its status never reaches the caller's chain. Background jobs read from the
// null device.
func (e *Executor) launch(ctx context.Context, t *task.Task, run func(context.Context, *Executor) int) {
	id := uuid.NewString()
	job := *e
	job.Stdin = nil

	shown := *t
	shown.Background = false
	e.Printer.Notice(e.stdout(), "[bg] started: %s", shown.String())
	e.logger().Debug("background job started", zap.String("job", id), zap.String("task", shown.String()))

	detached := context.WithoutCancel(ctx)
	go func() {
		status := run(detached, &job)
		job.logger().Debug("background job finished", zap.String("job", id), zap.Int("status", status))
	}()
}

func (e *Executor) stdout() io.Writer {
	return writerOrDiscard(e.Stdout)
}

func (e *Executor) stderr() io.Writer {
	return writerOrDiscard(e.Stderr)
}

func (e *Executor) fs() afero.Fs {
	if e.Fs == nil {
		return afero.NewOsFs()
	}
	return e.Fs
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Executor) env() []string {
	if e.Env == nil {
		return os.Environ()
	}
	return e.Env
}

// getenv returns the last value of key in the executor's environment.
func (e *Executor) getenv(key string) string {
	env := e.env()
	for i := len(env) - 1; i >= 0; i-- {
		if len(env[i]) > len(key) && env[i][len(key)] == '=' && env[i][:len(key)] == key {
			return env[i][len(key)+1:]
		}
	}
	return ""
}

func (e *Executor) exit(code int) {
	if e.Exit == nil {
		os.Exit(code)
	}
	e.Exit(code)
}
