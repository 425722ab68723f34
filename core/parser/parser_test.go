package parser

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltur/voltexec/core/task"
)

func ext(runIf task.RunIf, argv ...string) task.Task {
	return task.Task{Cmd: task.Single(argv...), Kind: task.KindExternal, RunIf: runIf}
}

func builtin(runIf task.RunIf, argv ...string) task.Task {
	return task.Task{Cmd: task.Single(argv...), Kind: task.KindBuiltin, RunIf: runIf}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []task.Task
	}{
		{
			name:     "simple command",
			input:    "ls -la /home/user",
			expected: []task.Task{ext(task.RunAlways, "ls", "-la", "/home/user")},
		},
		{
			name:     "builtin",
			input:    "cd /tmp",
			expected: []task.Task{builtin(task.RunAlways, "cd", "/tmp")},
		},
		{
			name:  "and then",
			input: "make && ./run",
			expected: []task.Task{
				ext(task.RunAlways, "make"),
				ext(task.RunLastSuccess, "./run"),
			},
		},
		{
			name:  "or else",
			input: "test -d out || mkdir out",
			expected: []task.Task{
				ext(task.RunAlways, "test", "-d", "out"),
				ext(task.RunLastFailed, "mkdir", "out"),
			},
		},
		{
			name:  "sequence without spaces",
			input: "a;b&&c||d",
			expected: []task.Task{
				ext(task.RunAlways, "a"),
				ext(task.RunAlways, "b"),
				ext(task.RunLastSuccess, "c"),
				ext(task.RunLastFailed, "d"),
			},
		},
		{
			name:     "quoted operator",
			input:    `echo "a && b"`,
			expected: []task.Task{ext(task.RunAlways, "echo", "a && b")},
		},
		{
			name:     "single quoted operators",
			input:    `echo 'x; y | z > w'`,
			expected: []task.Task{ext(task.RunAlways, "echo", "x; y | z > w")},
		},
		{
			name:     "escaped operator",
			input:    `echo a \&\& b`,
			expected: []task.Task{ext(task.RunAlways, "echo", "a", "&&", "b")},
		},
		{
			name:     "backslash literal in single quotes",
			input:    `echo 'a\' ; echo b`,
			expected: []task.Task{ext(task.RunAlways, "echo", `a\`), ext(task.RunAlways, "echo", "b")},
		},
		{
			name:     "escaped space",
			input:    `cat my\ file.txt`,
			expected: []task.Task{ext(task.RunAlways, "cat", "my file.txt")},
		},
		{
			name:  "pipeline",
			input: "ls | grep go | wc -l",
			expected: []task.Task{{
				Cmd:   task.Pipeline([]string{"ls"}, []string{"grep", "go"}, []string{"wc", "-l"}),
				Kind:  task.KindExternal,
				RunIf: task.RunAlways,
			}},
		},
		{
			name:  "pipeline with redirect",
			input: "cmd1 | cmd2 > out.txt",
			expected: []task.Task{{
				Cmd:    task.Pipeline([]string{"cmd1"}, []string{"cmd2"}),
				Kind:   task.KindExternal,
				RunIf:  task.RunAlways,
				Stdout: "out.txt",
			}},
		},
		{
			name:  "append redirect",
			input: "echo more >> out.txt",
			expected: []task.Task{{
				Cmd:    task.Single("echo", "more"),
				Kind:   task.KindExternal,
				RunIf:  task.RunAlways,
				Stdout: "out.txt",
				Append: true,
			}},
		},
		{
			name:  "quoted redirect target",
			input: `echo hi > "my notes.txt"`,
			expected: []task.Task{{
				Cmd:    task.Single("echo", "hi"),
				Kind:   task.KindExternal,
				RunIf:  task.RunAlways,
				Stdout: "my notes.txt",
			}},
		},
		{
			name:  "words after redirect target",
			input: "echo a > f b",
			expected: []task.Task{{
				Cmd:    task.Single("echo", "a", "b"),
				Kind:   task.KindExternal,
				RunIf:  task.RunAlways,
				Stdout: "f",
			}},
		},
		{
			name:  "redirect only",
			input: "> empty.txt",
			expected: []task.Task{{
				Kind:   task.KindExternal,
				RunIf:  task.RunAlways,
				Stdout: "empty.txt",
			}},
		},
		{
			name:     "redirect without target",
			input:    "echo hi >",
			expected: []task.Task{ext(task.RunAlways, "echo", "hi")},
		},
		{
			name:  "pwd redirect",
			input: "pwd >> dirs.txt",
			expected: []task.Task{{
				Cmd:    task.Single("pwd"),
				Kind:   task.KindBuiltin,
				RunIf:  task.RunAlways,
				Stdout: "dirs.txt",
				Append: true,
			}},
		},
		{
			name:  "background",
			input: "sleep 10 &",
			expected: []task.Task{{
				Cmd:        task.Single("sleep", "10"),
				Kind:       task.KindExternal,
				RunIf:      task.RunAlways,
				Background: true,
			}},
		},
		{
			name:  "background then foreground",
			input: "sleep 10 & ; echo done",
			expected: []task.Task{
				{Cmd: task.Single("sleep", "10"), Kind: task.KindExternal, RunIf: task.RunAlways, Background: true},
				ext(task.RunAlways, "echo", "done"),
			},
		},
		{
			name:     "lone ampersand",
			input:    "&",
			expected: nil,
		},
		{
			name:     "ampersand segment dropped",
			input:    "ls; & ; pwd",
			expected: []task.Task{ext(task.RunAlways, "ls"), builtin(task.RunAlways, "pwd")},
		},
		{
			name:     "quoted ampersand is not background",
			input:    `echo "&"`,
			expected: []task.Task{ext(task.RunAlways, "echo", "&")},
		},
		{
			name:  "subshell",
			input: "(cmd1 ; cmd2)",
			expected: []task.Task{{
				Kind:  task.KindSubshell,
				RunIf: task.RunAlways,
				Tasks: []task.Task{ext(task.RunAlways, "cmd1"), ext(task.RunAlways, "cmd2")},
			}},
		},
		{
			name:  "subshell in chain",
			input: "false || (cd /tmp && pwd) ; echo after",
			expected: []task.Task{
				ext(task.RunAlways, "false"),
				{
					Kind:  task.KindSubshell,
					RunIf: task.RunLastFailed,
					Tasks: []task.Task{builtin(task.RunAlways, "cd", "/tmp"), builtin(task.RunLastSuccess, "pwd")},
				},
				ext(task.RunAlways, "echo", "after"),
			},
		},
		{
			name:  "nested subshell in background",
			input: "(a; (b && c)) &",
			expected: []task.Task{{
				Kind:       task.KindSubshell,
				RunIf:      task.RunAlways,
				Background: true,
				Tasks: []task.Task{
					ext(task.RunAlways, "a"),
					{
						Kind:  task.KindSubshell,
						RunIf: task.RunAlways,
						Tasks: []task.Task{ext(task.RunAlways, "b"), ext(task.RunLastSuccess, "c")},
					},
				},
			}},
		},
		{
			name:  "parenthesised stages are not a subshell",
			input: "(a) | (b)",
			expected: []task.Task{{
				Cmd:   task.Pipeline([]string{"(a)"}, []string{"(b)"}),
				Kind:  task.KindExternal,
				RunIf: task.RunAlways,
			}},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "only whitespace",
			input:    "   \t  ",
			expected: nil,
		},
		{
			name:     "empty segments are dropped",
			input:    "; ; echo a ;;",
			expected: []task.Task{ext(task.RunAlways, "echo", "a")},
		},
		{
			name:     "empty pipeline stage is dropped",
			input:    "| cat",
			expected: []task.Task{ext(task.RunAlways, "cat")},
		},
		{
			name:     "unclosed quote extends to end",
			input:    `echo "a && b`,
			expected: []task.Task{ext(task.RunAlways, "echo", "a && b")},
		},
		{
			name:  "unclosed group extends to end",
			input: "(cd /tmp; ls",
			expected: []task.Task{{
				Kind:  task.KindSubshell,
				RunIf: task.RunAlways,
				Tasks: []task.Task{builtin(task.RunAlways, "cd", "/tmp"), ext(task.RunAlways, "ls")},
			}},
		},
		{
			name:     "trailing backslash",
			input:    `echo hello\`,
			expected: []task.Task{ext(task.RunAlways, "echo", "hello")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := Parse(tt.input)
			if diff := cmp.Diff(tt.expected, actual); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_plainLinesYieldOneTask(t *testing.T) {
	for _, line := range []string{"ls", "git status", "cd", "pwd", "show", "exit 3", "/usr/bin/env -i"} {
		tasks := Parse(line)
		require.Len(t, tasks, 1, line)
		assert.Equal(t, task.RunAlways, tasks[0].RunIf)

		expectedKind := task.KindExternal
		for _, b := range DefaultBuiltins {
			if tasks[0].Cmd.Name() == b {
				expectedKind = task.KindBuiltin
			}
		}
		assert.Equal(t, expectedKind, tasks[0].Kind, line)
	}
}

func TestOptions_Builtins(t *testing.T) {
	tasks, err := Options{Builtins: []string{"echo"}}.Parse("echo hi; cd /")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, task.KindBuiltin, tasks[0].Kind)
	assert.Equal(t, task.KindExternal, tasks[1].Kind)
}

func TestOptions_Strict(t *testing.T) {
	cases := []struct {
		input       string
		expectedErr error
	}{
		{`echo "hello`, ErrUnclosedQuote},
		{`echo 'hello`, ErrUnclosedQuote},
		{`echo hello\`, ErrTrailingEscape},
		{"(cd /tmp; ls", ErrUnbalancedParens},
		{"ls)", ErrUnbalancedParens},
		{"echo hi >", ErrMissingRedirectTarget},
		{"ls | | wc", ErrEmptyPipelineStage},
		{"&& ls", ErrMissingCommand},
		{"ls ||", ErrMissingCommand},
		{"(a && )", ErrMissingCommand},
		{"ls && &", ErrMissingCommand},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			tasks, err := Options{Strict: true}.Parse(tc.input)
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Nil(t, tasks)
		})
	}

	t.Run("valid input", func(t *testing.T) {
		tasks, err := Options{Strict: true}.Parse(`ls; echo "a)" && (pwd) > out &`)
		require.NoError(t, err)
		assert.Len(t, tasks, 3)
	})
}

func TestParse_roundTrip(t *testing.T) {
	for _, line := range []string{
		"ls -la",
		"echo 'a && b' > out.txt",
		"cat f | sort | uniq -c >> counts.txt",
		"false && echo no || echo yes; pwd",
		"(cd /tmp; sleep 1) &",
	} {
		t.Run(line, func(t *testing.T) {
			first := Parse(line)
			second := Parse(task.Join(first))
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("re-parse of %q mismatch (-want +got):\n%s", task.Join(first), diff)
			}
		})
	}
}

func TestParse_golden(t *testing.T) {
	cases := map[string]string{
		"simple":              "ls -la /tmp",
		"conditional":         "make && ./run || echo failed; echo done",
		"pipeline-redirect":   "cat log.txt | grep -v debug | sort > sorted.txt",
		"append":              `echo "hello world" >> notes.txt`,
		"subshell-background": "(cd build; make) &",
	}

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, line := range cases {
		t.Run(tn, func(t *testing.T) {
			out, err := json.MarshalIndent(Parse(line), "", "  ")
			require.NoError(t, err)

			g.Assert(t, tn, append(out, '\n'))
		})
	}
}
