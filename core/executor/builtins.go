package executor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds the registered builtins by name.
var AllBuiltins = make(map[string]Builtin)

// Builtin is a command run in-process against the executor's state.
// Builtins never fail the chain; only exit returns a status of its choosing.
type Builtin interface {
	Main(e *Executor, stdio *IO, args []string) int
}

type BuiltinFunc func(e *Executor, stdio *IO, args []string) int

func (f BuiltinFunc) Main(e *Executor, stdio *IO, args []string) int {
	return f(e, stdio, args)
}

var _ Builtin = (BuiltinFunc)(nil)

// BuiltinNames returns the registered builtin names in sorted order.
func BuiltinNames() []string {
	var names []string
	for k := range AllBuiltins {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// printUsage reports an option error, if any, followed by the usage text.
func printUsage(e *Executor, stdio *IO, opts *getopt.Set, err error, summary string) {
	if err != nil {
		e.Printer.Error(stdio.Stderr, "%v", err)
	}
	w := stdio.Stdout
	if err != nil {
		w = stdio.Stderr
	}
	opts.PrintUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, summary)
}

// Cd is the cd builtin.
func Cd(e *Executor, stdio *IO, args []string) int {
	opts := getopt.New()
	opts.SetParameters("[dir]")
	physical := opts.Bool('P', "use the physical directory, resolving symbolic links")
	opts.Bool('L', "keep symbolic links (default)")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		printUsage(e, stdio, opts, err, "Change the working directory, by default to $HOME.")
		return StatusSuccess
	}

	var target string
	switch rest := opts.Args(); len(rest) {
	case 0:
		target = e.home()
		if target == "" {
			e.Printer.Error(stdio.Stderr, "cd: HOME not set")
			return StatusSuccess
		}
	case 1:
		target = rest[0]
	default:
		e.Printer.Error(stdio.Stderr, "cd: too many arguments")
		return StatusSuccess
	}

	dir := resolvePath(e.Dir, target)
	if *physical {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
	}

	info, err := e.fs().Stat(dir)
	switch {
	case err != nil:
		e.Printer.Error(stdio.Stderr, "cd: %s", pathMessage(target, err))
	case !info.IsDir():
		e.Printer.Error(stdio.Stderr, "cd: %s: not a directory", target)
	default:
		e.Dir = dir
	}
	return StatusSuccess
}

// Pwd is the pwd builtin.
func Pwd(e *Executor, stdio *IO, args []string) int {
	opts := getopt.New()
	opts.SetParameters("")
	physical := opts.Bool('P', "print the physical directory, without symbolic links")
	opts.Bool('L', "print the directory as reached (default)")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		printUsage(e, stdio, opts, err, "Print the working directory.")
		return StatusSuccess
	}

	dir := e.Dir
	if *physical {
		resolved, err := filepath.EvalSymlinks(dir)
		if err != nil {
			e.Printer.Error(stdio.Stderr, "pwd: %s", pathMessage(dir, err))
			return StatusSuccess
		}
		dir = resolved
	}
	fmt.Fprintln(stdio.Stdout, dir)
	return StatusSuccess
}

// Show prints the executor's state.
func Show(e *Executor, stdio *IO, args []string) int {
	fmt.Fprintf(stdio.Stdout, "Current working directory: %s\n", e.Dir)
	return StatusSuccess
}

// Exit terminates the host process.
func Exit(e *Executor, stdio *IO, args []string) int {
	opts := getopt.New()
	opts.SetParameters("[n]")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		printUsage(e, stdio, opts, err, "Exit the process with status n, by default 0.")
		return StatusSuccess
	}

	code := StatusSuccess
	switch rest := opts.Args(); len(rest) {
	case 0:
	case 1:
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			e.Printer.Error(stdio.Stderr, "exit: %s: numeric argument required", rest[0])
			code = StatusMalformed
			break
		}
		code = n & 0xff
	default:
		e.Printer.Error(stdio.Stderr, "exit: too many arguments")
		return StatusFailure
	}

	e.exit(code)
	return code
}

// Help lists the builtins.
func Help(e *Executor, stdio *IO, args []string) int {
	w := stdio.Stdout
	fmt.Fprintln(w, "These commands are defined internally. Run `name --help' for details.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Join(BuiltinNames(), "\n"))
	return StatusSuccess
}

func init() {
	AllBuiltins["cd"] = BuiltinFunc(Cd)
	AllBuiltins["pwd"] = BuiltinFunc(Pwd)
	AllBuiltins["show"] = BuiltinFunc(Show)
	AllBuiltins["exit"] = BuiltinFunc(Exit)
	AllBuiltins["help"] = BuiltinFunc(Help)
}

// home is the directory cd uses without an argument.
func (e *Executor) home() string {
	if home := e.getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

func pathMessage(name string, err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return name + ": no such file or directory"
	case errors.Is(err, fs.ErrPermission):
		return name + ": permission denied"
	default:
		return name + ": " + err.Error()
	}
}
