// Package task holds the structured form of a command line: an ordered list
// of tasks, each carrying the metadata that decides if and how it runs.
package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Kind selects how the executor dispatches a task.
type Kind string

const (
	KindBuiltin  Kind = "builtin"
	KindExternal Kind = "external"
	KindSubshell Kind = "subshell"
)

// RunIf is the gate deciding whether a task runs given the previous status.
type RunIf string

const (
	RunAlways      RunIf = "always"
	RunLastSuccess RunIf = "last_success"
	RunLastFailed  RunIf = "last_failed"
)

// Admits reports whether a task gated by r runs after a task that exited
// with status. The empty gate behaves like RunAlways.
func (r RunIf) Admits(status int) bool {
	switch r {
	case RunLastSuccess:
		return status == 0
	case RunLastFailed:
		return status != 0
	default:
		return true
	}
}

// Operator returns the list separator that produces the gate when parsed.
func (r RunIf) Operator() string {
	switch r {
	case RunLastSuccess:
		return "&&"
	case RunLastFailed:
		return "||"
	default:
		return ";"
	}
}

// Command is a chain of pipeline stages, each one an argument vector.
//
// In JSON and YAML a single stage is written as a flat list of strings and a
// pipeline as a list of lists; both forms are accepted when decoding.
type Command [][]string

// Single builds a one stage command.
func Single(argv ...string) Command {
	return Command{argv}
}

// Pipeline builds a command from several stages.
func Pipeline(stages ...[]string) Command {
	return Command(stages)
}

// Name returns the program name of the first stage, or "" if there is none.
func (c Command) Name() string {
	if len(c) == 0 || len(c[0]) == 0 {
		return ""
	}
	return c[0][0]
}

// IsPipeline reports whether the command has more than one stage.
func (c Command) IsPipeline() bool {
	return len(c) > 1
}

// MarshalJSON implements json.Marshaler.
func (c Command) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([][]string(c))
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Command) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("cmd must be a list: %w", err)
	}
	if len(raw) == 0 {
		*c = nil
		return nil
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte("[")) {
		var stages [][]string
		if err := json.Unmarshal(b, &stages); err != nil {
			return fmt.Errorf("cmd pipeline must be a list of string lists: %w", err)
		}
		*c = stages
		return nil
	}

	var argv []string
	if err := json.Unmarshal(b, &argv); err != nil {
		return fmt.Errorf("cmd must be a list of strings: %w", err)
	}
	*c = Command{argv}
	return nil
}

// Task is one unit of execution: a command or pipeline, a builtin call or a
// subshell, plus the metadata controlling when and where it runs.
type Task struct {
	Cmd        Command `json:"cmd,omitempty"`
	Kind       Kind    `json:"type,omitempty" validate:"omitempty,oneof=builtin external subshell"`
	RunIf      RunIf   `json:"run_if,omitempty" validate:"omitempty,oneof=always last_success last_failed"`
	Background bool    `json:"background,omitempty"`
	Stdout     string  `json:"stdout,omitempty"`
	Append     bool    `json:"append,omitempty"`
	Tasks      []Task  `json:"tasks,omitempty" validate:"dive"`
}

// EffectiveKind returns the task kind, defaulting to KindExternal.
func (t *Task) EffectiveKind() Kind {
	if t.Kind == "" {
		return KindExternal
	}
	return t.Kind
}

// String renders the task as a shell command line.
func (t Task) String() string {
	var sb strings.Builder

	if t.EffectiveKind() == KindSubshell {
		sb.WriteString("(")
		sb.WriteString(Join(t.Tasks))
		sb.WriteString(")")
	} else {
		for i, stage := range t.Cmd {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(QuoteArgs(stage))
		}
		if t.Stdout != "" {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			if t.Append {
				sb.WriteString(">> ")
			} else {
				sb.WriteString("> ")
			}
			sb.WriteString(quote(t.Stdout))
		}
	}

	if t.Background {
		sb.WriteString(" &")
	}
	return sb.String()
}

// Join renders a task list as a single command line, using each task's gate
// to pick the separator in front of it.
func Join(tasks []Task) string {
	var sb strings.Builder
	for i, t := range tasks {
		if i > 0 {
			op := t.RunIf.Operator()
			if op != ";" {
				sb.WriteString(" ")
			}
			sb.WriteString(op)
			sb.WriteString(" ")
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// QuoteArgs joins argv into shell words, quoting where needed.
func QuoteArgs(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(s string) string {
	out, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		// Only strings with control characters or NUL land here.
		return strconv.Quote(s)
	}
	return out
}
