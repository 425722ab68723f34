// Package parser turns a raw command line into a task list.
//
// Parsing is purely lexical, there is no filesystem or process access and no
// expansion of any kind. The recognised grammar is a small subset of
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html:
//
//	list      := task { ( "&&" | "||" | ";" ) task }
//	task      := ( "(" list ")" | pipeline [ ( ">" | ">>" ) word ] ) [ "&" ]
//	pipeline  := words { "|" words }
//
// Operators only count outside quotes and outside parentheses. By default
// the parser is permissive: an unterminated quote or group extends to the
// end of the input and nothing is ever rejected. Options.Strict turns those
// cases into errors instead.
package parser

import (
	"errors"

	"github.com/voltur/voltexec/core/task"
)

var (
	ErrUnclosedQuote         = errors.New("unclosed quote")
	ErrTrailingEscape        = errors.New("trailing backslash")
	ErrUnbalancedParens      = errors.New("unbalanced parentheses")
	ErrMissingRedirectTarget = errors.New("missing redirect target")
	ErrEmptyPipelineStage    = errors.New("empty pipeline stage")
	ErrMissingCommand        = errors.New("missing command next to operator")
)

// DefaultBuiltins are the command names classified as task.KindBuiltin.
var DefaultBuiltins = []string{"cd", "pwd", "exit", "show", "help"}

var (
	listOperators     = []string{"&&", "||", ";"}
	pipelineOperators = []string{"|"}
)

// Options configures a parse.
type Options struct {
	// Strict rejects malformed input rather than recovering from it.
	Strict bool

	// Builtins overrides DefaultBuiltins when non-nil.
	Builtins []string
}

// Parse parses line permissively with the default builtins. It never fails.
func Parse(line string) []task.Task {
	tasks, _ := Options{}.Parse(line)
	return tasks
}

// Parse converts line into an ordered task list.
func (o Options) Parse(line string) ([]task.Task, error) {
	if o.Strict {
		var state scanState
		for _, ch := range line {
			state.step(ch)
		}
		if err := state.err(); err != nil {
			return nil, err
		}
	}

	p := &parser{opts: o, builtins: make(map[string]bool)}
	names := o.Builtins
	if names == nil {
		names = DefaultBuiltins
	}
	for _, name := range names {
		p.builtins[name] = true
	}

	return p.parseList(line)
}

type parser struct {
	opts     Options
	builtins map[string]bool
}

func (p *parser) parseList(line string) ([]task.Task, error) {
	segments := splitTopLevel(line, listOperators)

	var tasks []task.Task
	for i, seg := range segments {
		// A lone & is as empty as no text at all.
		if body, _ := trailingBackground(seg.text); body == "" {
			if p.opts.Strict && p.missingCommand(segments, i) {
				return nil, ErrMissingCommand
			}
			continue
		}

		t, err := p.parseTask(seg.text)
		if err != nil {
			return nil, err
		}
		t.RunIf = runIfFor(seg.op)
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// missingCommand reports whether the empty segment at i is adjacent to a
// conditional operator, which always needs a command on both sides.
func (p *parser) missingCommand(segments []segment, i int) bool {
	conditional := func(op string) bool { return op == "&&" || op == "||" }
	if conditional(segments[i].op) {
		return true
	}
	return i+1 < len(segments) && conditional(segments[i+1].op)
}

func runIfFor(op string) task.RunIf {
	switch op {
	case "&&":
		return task.RunLastSuccess
	case "||":
		return task.RunLastFailed
	default:
		return task.RunAlways
	}
}

func (p *parser) parseTask(seg string) (task.Task, error) {
	var t task.Task

	seg, t.Background = trailingBackground(seg)

	if interior, ok := groupInterior(seg); ok {
		nested, err := p.parseList(interior)
		if err != nil {
			return t, err
		}
		t.Kind = task.KindSubshell
		t.Tasks = nested
		return t, nil
	}

	redir := splitRedirect(seg)
	var extra []string
	if redir.found {
		target := words(redir.target)
		switch {
		case len(target) > 0:
			t.Stdout = target[0]
			t.Append = redir.append
			extra = target[1:]
		case p.opts.Strict:
			return t, ErrMissingRedirectTarget
		}
	}

	stages, err := p.parsePipeline(redir.base)
	if err != nil {
		return t, err
	}

	// Words following the redirect target still belong to the command.
	if len(extra) > 0 {
		if len(stages) == 0 {
			stages = append(stages, nil)
		}
		last := len(stages) - 1
		stages[last] = append(stages[last], extra...)
	}

	t.Cmd = task.Command(stages)
	t.Kind = task.KindExternal
	if p.builtins[t.Cmd.Name()] {
		t.Kind = task.KindBuiltin
	}
	return t, nil
}

func (p *parser) parsePipeline(base string) ([][]string, error) {
	pieces := splitTopLevel(base, pipelineOperators)

	var stages [][]string
	for _, piece := range pieces {
		argv := words(piece.text)
		if len(argv) == 0 {
			if p.opts.Strict && len(pieces) > 1 {
				return nil, ErrEmptyPipelineStage
			}
			continue
		}
		stages = append(stages, argv)
	}
	return stages, nil
}
