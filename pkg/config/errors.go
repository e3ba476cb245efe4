package config

import (
	"fmt"
	"regexp"
)

// ParseError is a single, line-numbered config diagnostic. Parse errors are
// recoverable: the loader collects them into a Report rather than aborting
// on the first one, mirroring how a linter accumulates findings.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// lineColPattern matches goccy/go-yaml's "[line:col] message" error prefix.
var lineColPattern = regexp.MustCompile(`^\[(\d+):(\d+)\]\s*(.*)$`)

// newParseError builds a ParseError from a raw YAML decode error, extracting
// line/column information from goccy/go-yaml's error text when present.
func newParseError(file string, err error) *ParseError {
	msg := err.Error()
	if m := lineColPattern.FindStringSubmatch(msg); m != nil {
		line, col := atoiSafe(m[1]), atoiSafe(m[2])
		return &ParseError{File: file, Line: line, Column: col, Message: m[3], Cause: err}
	}
	return &ParseError{File: file, Message: msg, Cause: err}
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// Report collects non-fatal parse errors across one or more config files.
type Report struct {
	Errors []*ParseError
}

func (r *Report) Add(e *ParseError) { r.Errors = append(r.Errors, e) }

func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

func (r *Report) Error() string {
	if len(r.Errors) == 0 {
		return ""
	}
	s := fmt.Sprintf("%d configuration error(s):", len(r.Errors))
	for _, e := range r.Errors {
		s += "\n  " + e.Error()
	}
	return s
}
