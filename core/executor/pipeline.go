package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voltur/voltexec/core/task"
)

// runCommand runs a builtin or external task, including its pipeline stages
// and stdout redirection.
func (e *Executor) runCommand(ctx context.Context, t *task.Task, stdin io.Reader) int {
	var out io.Writer
	if t.Stdout != "" {
		target, err := e.openTarget(t.Stdout, t.Append)
		if err != nil {
			e.Printer.Error(e.stderr(), "%s", pathMessage(t.Stdout, err))
			return StatusFailure
		}
		defer target.Close()
		out = target
	}

	stages := t.Cmd
	if len(stages) == 0 {
		if out != nil {
			// A bare redirect only creates or truncates the target.
			return StatusSuccess
		}
		e.Printer.Error(e.stderr(), "empty command")
		return StatusMalformed
	}
	for _, argv := range stages {
		if len(argv) == 0 {
			e.Printer.Error(e.stderr(), "syntax error: empty pipeline stage in %q", t.String())
			return StatusMalformed
		}
	}

	if t.EffectiveKind() == task.KindBuiltin {
		if builtin, ok := AllBuiltins[stages.Name()]; ok {
			if len(stages) == 1 {
				return e.runBuiltin(builtin, NewIO(stdin, orConsole(out, e.stdout()), e.stderr()), stages[0])
			}

			// The builtin's output feeds the rest of the pipeline.
			buf := &bytes.Buffer{}
			e.runBuiltin(builtin, NewIO(stdin, buf, e.stderr()), stages[0])
			stdin = buf
			stages = stages[1:]
		}
	}

	return e.runStages(ctx, stages, stdin, out)
}

func (e *Executor) runBuiltin(builtin Builtin, stdio *IO, argv []string) int {
	e.logger().Debug("builtin", zap.Strings("argv", argv))
	status := builtin.Main(e, stdio, argv)
	e.logger().Debug("builtin exited", zap.Strings("argv", argv), zap.Int("status", status))
	return status
}

// runStages spawns one process per stage, connected by pipes. The final
// stage writes to out, or to the console when out is nil. Every stage is
// waited and its stderr reported; the status is the last stage's.
func (e *Executor) runStages(ctx context.Context, stages task.Command, stdin io.Reader, out io.Writer) int {
	captured := &bytes.Buffer{}
	if out == nil {
		out = captured
	}

	var (
		cmds     []*exec.Cmd
		stderrs  []*bytes.Buffer
		prevRead *os.File
		failed   = -1
	)

	// Resolve every program first so a missing one spawns nothing.
	paths := make([]string, len(stages))
	pathEnv := e.getenv("PATH")
	for i, argv := range stages {
		path, err := lookPath(hostFs, e.Dir, pathEnv, argv[0])
		if err != nil {
			e.Printer.Error(e.stderr(), "%s", spawnMessage(argv[0], err))
			return spawnStatus(err)
		}
		paths[i] = path
	}

	for i, argv := range stages {
		cmd := exec.CommandContext(ctx, paths[i], argv[1:]...)
		cmd.Args[0] = argv[0]
		cmd.Dir = e.Dir
		cmd.Env = e.env()

		stderr := &bytes.Buffer{}
		cmd.Stderr = stderr

		if i == 0 {
			cmd.Stdin = childStdin(readerOrNull(stdin))
		} else {
			cmd.Stdin = prevRead
		}

		var (
			nextRead, write *os.File
			err             error
		)
		if i == len(stages)-1 {
			cmd.Stdout = out
		} else {
			nextRead, write, err = os.Pipe()
			if err != nil {
				e.Printer.Error(e.stderr(), "pipe: %v", err)
				failed = StatusFailure
				break
			}
			cmd.Stdout = write
		}

		err = cmd.Start()

		// Release the parent's copies so readers see end-of-stream once the
		// writing stage exits.
		if prevRead != nil {
			prevRead.Close()
			prevRead = nil
		}
		if write != nil {
			write.Close()
		}

		if err != nil {
			if nextRead != nil {
				nextRead.Close()
			}
			e.Printer.Error(e.stderr(), "%s", spawnMessage(argv[0], err))
			failed = spawnStatus(err)
			break
		}

		e.logger().Debug("stage started", zap.Strings("argv", argv), zap.Int("pid", cmd.Process.Pid))
		cmds = append(cmds, cmd)
		stderrs = append(stderrs, stderr)
		prevRead = nextRead
	}
	if prevRead != nil {
		prevRead.Close()
	}

	statuses := make([]int, len(cmds))
	var g errgroup.Group
	for i, cmd := range cmds {
		i, cmd := i, cmd
		g.Go(func() error {
			err := cmd.Wait()
			statuses[i] = exitStatus(err)
			e.logger().Debug("stage exited", zap.Strings("argv", cmd.Args), zap.Int("status", statuses[i]))
			return err
		})
	}
	// Child exit codes are reported through statuses.
	_ = g.Wait()

	e.flush(captured, stderrs)

	if failed >= 0 {
		return failed
	}
	return statuses[len(statuses)-1]
}

// flush writes captured stdout then each stage's stderr, in stage order.
func (e *Executor) flush(stdout *bytes.Buffer, stderrs []*bytes.Buffer) {
	if stdout.Len() > 0 {
		e.stdout().Write(stdout.Bytes())
	}
	for _, buf := range stderrs {
		if buf.Len() > 0 {
			e.stderr().Write(buf.Bytes())
		}
	}
}

// exitStatus converts the result of exec.Cmd.Wait into a shell status.
func exitStatus(err error) int {
	if err == nil {
		return StatusSuccess
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := signalStatus(exitErr.ProcessState); ok {
			return status
		}
		return exitErr.ExitCode()
	}
	return StatusFailure
}

// openTarget opens a redirect target relative to the working directory.
func (e *Executor) openTarget(name string, appendMode bool) (afero.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return e.fs().OpenFile(resolvePath(e.Dir, name), flags, 0644)
}

func orConsole(out, console io.Writer) io.Writer {
	if out == nil {
		return console
	}
	return out
}
