package speedlaunch

import (
	"fmt"
	"os"
	"strings"
)

// ParseError describes a problem in a guide file with enough context to fix it.
type ParseError struct {
	File    string // source path, or "embedded:<name>"
	Line    int    // 1-indexed, 0 when unknown
	Message string
	Hint    string // suggested fix
	Related string // e.g. where a duplicate id was first defined

	source []byte
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return e.Format()
}

// Format renders the error with surrounding source lines.
func (e *ParseError) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "❌ Error in %s\n\n", e.File)
	if e.Line > 0 {
		fmt.Fprintf(&b, "Line %d: %s\n", e.Line, e.Message)
	} else {
		fmt.Fprintf(&b, "%s\n", e.Message)
	}

	b.WriteString(e.codeContext())

	if e.Hint != "" {
		fmt.Fprintf(&b, "\n💡 Tip: %s\n", e.Hint)
	}
	if e.Related != "" {
		fmt.Fprintf(&b, "\n🔗 %s\n", e.Related)
	}
	return b.String()
}

// codeContext shows two lines either side of the error line. It prefers the
// source captured at parse time and falls back to re-reading File.
func (e *ParseError) codeContext() string {
	if e.Line < 1 {
		return ""
	}
	src := e.source
	if src == nil && e.File != "" && !strings.HasPrefix(e.File, "embedded:") {
		data, err := os.ReadFile(e.File)
		if err != nil {
			return ""
		}
		src = data
	}
	if src == nil {
		return ""
	}

	lines := strings.Split(string(src), "\n")
	if e.Line > len(lines) {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	start := max(1, e.Line-2)
	end := min(len(lines), e.Line+2)
	for i := start; i <= end; i++ {
		marker := "  "
		if i == e.Line {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%3d | %s\n", marker, i, lines[i-1])
	}
	return b.String()
}

// NewParseError creates a ParseError for file at line.
func NewParseError(file string, line int, message string) *ParseError {
	return &ParseError{File: file, Line: line, Message: message}
}

// WithHint adds a suggested fix.
func (e *ParseError) WithHint(hint string) *ParseError {
	e.Hint = hint
	return e
}

// WithRelated adds related information.
func (e *ParseError) WithRelated(related string) *ParseError {
	e.Related = related
	return e
}

func (e *ParseError) withSource(src []byte) *ParseError {
	e.source = src
	return e
}
