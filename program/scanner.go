package program

import (
	"fmt"
	"strings"
)

// scanner walks the lines of a text, trimmed and lower-cased.
type scanner struct {
	lines  []string
	lineNo int
	raw    string
}

func newScanner(text string) *scanner {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return &scanner{lines: strings.Split(text, "\n")}
}

func (s *scanner) next() bool {
	if s.lineNo >= len(s.lines) {
		return false
	}

	s.raw = s.lines[s.lineNo]
	s.lineNo++

	return true
}

func (s *scanner) text() string {
	return strings.ToLower(strings.TrimSpace(s.raw))
}

func (s *scanner) errorf(reason string, args ...any) *ParseError {
	return &ParseError{
		Line:   s.lineNo,
		Text:   strings.TrimSpace(s.raw),
		Reason: fmt.Sprintf(reason, args...),
	}
}
