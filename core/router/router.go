// Package router dispatches console input: slash commands are handled here,
// everything else goes to a fallback.
package router

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/voltur/voltexec/core/console"
	"github.com/voltur/voltexec/core/executor"
	"github.com/voltur/voltexec/core/parser"
	"github.com/voltur/voltexec/core/task"
)

// Router handles console lines against one executor.
type Router struct {
	Executor *executor.Executor
	Parser   parser.Options
	// ExecEnabled allows /exec. When false the command is treated as unknown.
	ExecEnabled bool
	Printer     console.Printer
	Out         io.Writer
	// Fallback receives lines that are not slash commands and returns their
	// status. Nil ignores them.
	Fallback func(ctx context.Context, line string) int

	status int
}

// Status is the exit status of the last command run through the router.
func (r *Router) Status() int {
	return r.status
}

// Handle routes one line. It returns false once the user asked to quit.
func (r *Router) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		if r.Fallback != nil {
			r.status = r.Fallback(ctx, line)
		}
		return true
	}

	name, rest := splitCommand(line)
	switch name {
	case "/quit", "/bye", "/exit":
		r.Printer.Notice(r.Out, "Exiting...")
		return false

	case "/help", "/?":
		r.ShowHelp()

	case "/exec":
		if !r.ExecEnabled {
			r.unknownCommand()
			break
		}
		if rest == "" {
			r.Printer.Error(r.Out, "No command provided to execute.")
			break
		}
		r.Printer.Notice(r.Out, "Executing system command: %s", rest)
		r.status = r.ExecLine(ctx, rest)

	case "/cd":
		argv := []string{"cd"}
		if rest != "" {
			argv = append(argv, rest)
		}
		r.status = r.execBuiltin(ctx, argv)

	case "/pwd":
		r.status = r.execBuiltin(ctx, []string{"pwd"})

	default:
		r.unknownCommand()
	}
	return true
}

// ExecLine parses line and executes the result.
func (r *Router) ExecLine(ctx context.Context, line string) int {
	tasks, err := r.Parser.Parse(line)
	if err != nil {
		r.Printer.Error(r.Out, "parse error: %v", err)
		return executor.StatusMalformed
	}
	return r.Executor.ExecTasks(ctx, tasks)
}

func (r *Router) execBuiltin(ctx context.Context, argv []string) int {
	return r.Executor.ExecTasks(ctx, []task.Task{{
		Kind: task.KindBuiltin,
		Cmd:  task.Single(argv...),
	}})
}

func (r *Router) unknownCommand() {
	r.Printer.Notice(r.Out, "I don't know that command.")
	r.ShowHelp()
}

// ShowHelp prints the slash command reference.
func (r *Router) ShowHelp() {
	var sb strings.Builder
	sb.WriteString("Available Commands:\n\n")
	sb.WriteString("  /help         Show this help message.\n")
	sb.WriteString("  /quit         Exit the console. Also /bye and /exit.\n")
	if r.ExecEnabled {
		sb.WriteString("  /exec <cmd>   Execute a command line.\n")
		sb.WriteString("                   Example: /exec ls -la | grep go > files.txt\n")
	}
	sb.WriteString("  /cd [dir]     Change the working directory.\n")
	sb.WriteString("  /pwd          Print the working directory.\n")
	sb.WriteString("\nNotes:\n")
	sb.WriteString("  - Commands must begin with a '/' character.\n")
	if r.ExecEnabled {
		sb.WriteString("  - Other lines are executed as command lines.\n")
	}

	fmt.Fprintln(r.Out, r.Printer.Sprintf(console.StyleSystem, "%s", sb.String()))
}

// Prompt renders the console prompt for handle on host. A nonzero status
// from the previous command is shown in front.
func (r *Router) Prompt(handle, host, home string) string {
	var sb strings.Builder
	if r.status != 0 {
		sb.WriteString(r.Printer.Sprintf(console.StyleError, "[%d]", r.status))
		sb.WriteString(" ")
	}
	sb.WriteString(r.Printer.Sprintf(console.StyleSender, "%s@%s:", handle, host))
	sb.WriteString(" > ")
	sb.WriteString(r.Printer.Sprintf(console.StyleHighlight, "(cwd:%s)", shortenHome(r.Executor.Dir, home)))
	sb.WriteString(" ")
	return sb.String()
}

// splitCommand separates the lowercased slash command from its argument text.
func splitCommand(line string) (string, string) {
	name, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		name, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	return strings.ToLower(name), rest
}

// shortenHome replaces a leading home directory with ~.
func shortenHome(dir, home string) string {
	if home == "" {
		return dir
	}
	rel, err := filepath.Rel(home, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return dir
	}
	if rel == "." {
		return "~"
	}
	return "~" + string(filepath.Separator) + rel
}
