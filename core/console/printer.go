// Package console formats the human readable text written around command
// output: notices, errors and prompts.
package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

// ColorModes lists the accepted values for Printer.Mode.
var ColorModes = []string{ColorAlways, ColorAuto, ColorNever}

// Style is a set of terminal attributes applied to a piece of text.
type Style []color.Attribute

var (
	StyleText      = Style{color.FgWhite}
	StyleSystem    = Style{color.FgHiBlack}
	StyleSender    = Style{color.FgGreen}
	StyleHighlight = Style{color.FgCyan}
	StyleWarn      = Style{color.FgYellow}
	StyleError     = Style{color.FgRed}
	StyleBold      = Style{color.Bold}
)

// Printer renders styled text. It carries no mutable state, so one value can
// be handed to any number of executors and goroutines.
type Printer struct {
	// Mode is one of ColorAlways, ColorAuto or ColorNever. Auto (and the zero
	// value) colors only when stdout is a terminal.
	Mode string
}

// Plain is a Printer that never emits escape codes.
var Plain = Printer{Mode: ColorNever}

// ShouldColor reports whether escape codes are emitted.
func (p Printer) ShouldColor() bool {
	switch p.Mode {
	case ColorNever:
		return false
	case ColorAlways:
		return true
	default:
		return !color.NoColor
	}
}

// Sprintf formats the arguments and wraps them in style.
func (p Printer) Sprintf(style Style, format string, a ...interface{}) string {
	if !p.ShouldColor() || len(style) == 0 {
		return fmt.Sprintf(format, a...)
	}

	c := color.New(style...)
	c.EnableColor()
	return c.Sprintf(format, a...)
}

// Notice writes a system message line to w.
func (p Printer) Notice(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, p.Sprintf(StyleSystem, format, a...))
}

// Warn writes a warning line to w.
func (p Printer) Warn(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, p.Sprintf(StyleWarn, format, a...))
}

// Error writes an error line to w.
func (p Printer) Error(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintln(w, p.Sprintf(StyleError, format, a...))
}
