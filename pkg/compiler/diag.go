package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Stage names the front-end phase that produced a diagnostic.
type Stage int

const (
	StageLexical Stage = iota
	StageSyntactic
	StageSemantic
)

func (s Stage) String() string {
	switch s {
	case StageLexical:
		return "lexical"
	case StageSyntactic:
		return "syntactic"
	case StageSemantic:
		return "semantic"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one user-facing message about the source program.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Line     int
	Msg      string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, d.Msg)
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

func (ds Diagnostics) filter(sev Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

func (ds Diagnostics) Errors() Diagnostics   { return ds.filter(SeverityError) }
func (ds Diagnostics) Warnings() Diagnostics { return ds.filter(SeverityWarning) }

func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// sortByLine orders diagnostics by source line, keeping emission order for
// diagnostics on the same line.
func (ds Diagnostics) sortByLine() {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Line < ds[j].Line })
}

// SourceError is a lexical or syntactic error. Both stages stop at the first
// error, so there is never more than one.
type SourceError struct {
	Stage   Stage
	Line    int
	Col     int
	Msg     string
	Snippet string // trimmed text of the offending source line
}

func newSourceError(stage Stage, line, col int, snippet, format string, args ...any) *SourceError {
	return &SourceError{
		Stage:   stage,
		Line:    line,
		Col:     col,
		Msg:     fmt.Sprintf(format, args...),
		Snippet: snippet,
	}
}

func (e *SourceError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("line %d:%d: %s\n  |> %s", e.Line, e.Col, e.Msg, e.Snippet)
}

// Diagnostic converts e into a Diagnostic for uniform reporting.
func (e *SourceError) Diagnostic() Diagnostic {
	return Diagnostic{Stage: e.Stage, Severity: SeverityError, Line: e.Line, Msg: e.Msg}
}

// CompileError is returned by Compile when the front end rejects the program.
// Err holds the underlying *SourceError for lexical and syntactic failures.
type CompileError struct {
	Stage Stage
	Diags Diagnostics
	Err   error
}

func (e *CompileError) Error() string {
	errs := e.Diags.Errors()
	if len(errs) == 0 && e.Err != nil {
		return fmt.Sprintf("%s analysis failed: %v", e.Stage, e.Err)
	}
	msgs := make([]string, len(errs))
	for i, d := range errs {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("%s analysis failed with %d error(s):\n%s", e.Stage, len(errs), strings.Join(msgs, "\n"))
}

func (e *CompileError) Unwrap() error { return e.Err }

func splitLines(src string) []string {
	return strings.Split(src, "\n")
}

func snippetAt(lines []string, line int) string {
	if line-1 >= 0 && line-1 < len(lines) {
		return strings.TrimSpace(lines[line-1])
	}
	return ""
}
