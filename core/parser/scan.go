package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/anmitsu/go-shlex"
)

// scanState tracks the lexical context while walking a command line left to
// right: quoting, a pending backslash escape and parenthesis depth.
type scanState struct {
	quote      rune
	escape     bool
	depth      int
	strayClose bool
}

// step advances the state over ch and reports whether ch is active, meaning
// it is unquoted, unescaped and outside any group. Only active characters
// can be operators.
func (s *scanState) step(ch rune) bool {
	if s.escape {
		s.escape = false
		return false
	}

	switch {
	case ch == '\\' && s.quote != '\'':
		// Backslashes are literal inside single quotes.
		s.escape = true
		return false
	case s.quote != 0:
		if ch == s.quote {
			s.quote = 0
		}
		return false
	case ch == '\'' || ch == '"':
		s.quote = ch
		return false
	case ch == '(':
		s.depth++
		return false
	case ch == ')':
		if s.depth > 0 {
			s.depth--
		} else {
			s.strayClose = true
		}
		return false
	}

	return s.depth == 0
}

// err reports what was left open at the end of the input, if anything.
func (s *scanState) err() error {
	switch {
	case s.quote != 0:
		return ErrUnclosedQuote
	case s.escape:
		return ErrTrailingEscape
	case s.depth > 0, s.strayClose:
		return ErrUnbalancedParens
	}
	return nil
}

// segment is a piece of a command line along with the operator that
// preceded it, or "" for the first piece.
type segment struct {
	text string
	op   string
}

// splitTopLevel splits line on any of ops wherever they appear active.
// Segments are trimmed; empty ones are kept so callers can decide what an
// operator with nothing around it means.
func splitTopLevel(line string, ops []string) []segment {
	var (
		out   []segment
		state scanState
		start int
		op    string
	)

	for i := 0; i < len(line); {
		ch, size := utf8.DecodeRuneInString(line[i:])
		if state.step(ch) {
			if matched := matchOperator(line[i:], ops); matched != "" {
				out = append(out, segment{text: strings.TrimSpace(line[start:i]), op: op})
				op = matched
				i += len(matched)
				start = i
				continue
			}
		}
		i += size
	}

	return append(out, segment{text: strings.TrimSpace(line[start:]), op: op})
}

func matchOperator(s string, ops []string) string {
	for _, op := range ops {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

// trailingBackground strips an active trailing "&" from a trimmed segment.
func trailingBackground(seg string) (string, bool) {
	var state scanState
	lastAmp := -1
	for i, ch := range seg {
		if state.step(ch) && ch == '&' {
			lastAmp = i
		}
	}

	if lastAmp < 0 || lastAmp != len(seg)-1 {
		return seg, false
	}
	return strings.TrimSpace(seg[:lastAmp]), true
}

// groupInterior returns the text inside a parenthesised group spanning the
// whole segment. A group left open runs to the end of the segment.
func groupInterior(seg string) (string, bool) {
	if !strings.HasPrefix(seg, "(") {
		return "", false
	}

	var state scanState
	for i, ch := range seg {
		state.step(ch)
		if ch == ')' && state.depth == 0 && !state.strayClose && state.quote == 0 {
			if i != len(seg)-1 {
				return "", false
			}
			return seg[1:i], true
		}
	}

	// Unterminated: the group extends to end of input.
	return seg[1:], true
}

// redirection is the result of splitting an output redirect off a segment.
type redirection struct {
	base   string
	target string
	append bool
	found  bool
}

// splitRedirect finds the first active ">" or ">>" in seg.
func splitRedirect(seg string) redirection {
	var state scanState
	for i, ch := range seg {
		if !state.step(ch) || ch != '>' {
			continue
		}

		rest := seg[i+1:]
		appendMode := strings.HasPrefix(rest, ">")
		if appendMode {
			rest = rest[1:]
		}
		return redirection{
			base:   strings.TrimSpace(seg[:i]),
			target: strings.TrimSpace(rest),
			append: appendMode,
			found:  true,
		}
	}

	return redirection{base: strings.TrimSpace(seg)}
}

// words splits s into arguments using POSIX shell word rules. Input left
// unterminated still yields the words read so far, including the partial
// one.
func words(s string) []string {
	out, _ := shlex.Split(s, true)
	return out
}
