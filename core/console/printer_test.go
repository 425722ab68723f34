package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_ShouldColor(t *testing.T) {
	assert.True(t, Printer{Mode: ColorAlways}.ShouldColor())
	assert.False(t, Printer{Mode: ColorNever}.ShouldColor())
	assert.False(t, Plain.ShouldColor())
}

func TestPrinter_Sprintf(t *testing.T) {
	cases := []struct {
		name     string
		printer  Printer
		style    Style
		expected string
	}{
		{"never", Printer{Mode: ColorNever}, StyleError, "code 127"},
		{"always", Printer{Mode: ColorAlways}, StyleError, "\x1b[31mcode 127\x1b[0m"},
		{"always-no-style", Printer{Mode: ColorAlways}, nil, "code 127"},
		{"always-compound", Printer{Mode: ColorAlways}, Style{31, 1}, "\x1b[31;1mcode 127\x1b[0m"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.printer.Sprintf(tc.style, "code %d", 127))
		})
	}
}

func TestPrinter_lines(t *testing.T) {
	buf := &bytes.Buffer{}

	Plain.Notice(buf, "[bg] started: %s", "sleep 1")
	Plain.Warn(buf, "careful")
	Plain.Error(buf, "%s: command not found", "nope")

	assert.Equal(t, "[bg] started: sleep 1\ncareful\nnope: command not found\n", buf.String())
}
