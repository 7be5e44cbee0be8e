// Package report prints the compiler's progress for people: stage headers,
// success, error and warning lines, and tables for instruction listings and
// the symbol table.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"milang/pkg/compiler"
	"milang/pkg/optimize"
	"milang/pkg/tac"
	"milang/pkg/vm"
)

var (
	colorStage   = text.Colors{text.Bold, text.FgCyan}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.Bold, text.FgRed}
	colorWarning = text.Colors{text.FgYellow}
)

type Reporter struct {
	w     io.Writer
	color bool
}

// New returns a Reporter writing to w. With color off, output is plain text.
func New(w io.Writer, color bool) *Reporter {
	return &Reporter{w: w, color: color}
}

func (r *Reporter) paint(c text.Colors, s string) string {
	if !r.color {
		return s
	}
	return c.Sprint(s)
}

func (r *Reporter) line(c text.Colors, prefix, format string, args ...any) {
	fmt.Fprintln(r.w, r.paint(c, prefix+fmt.Sprintf(format, args...)))
}

// Stage prints a section header.
func (r *Reporter) Stage(name string) {
	fmt.Fprintln(r.w, r.paint(colorStage, "== "+name+" =="))
}

func (r *Reporter) Success(format string, args ...any) { r.line(colorSuccess, "ok: ", format, args...) }
func (r *Reporter) Error(format string, args ...any)   { r.line(colorError, "error: ", format, args...) }
func (r *Reporter) Warning(format string, args ...any) { r.line(colorWarning, "warning: ", format, args...) }

// Diagnostics prints every diagnostic, errors in red and warnings in yellow.
func (r *Reporter) Diagnostics(ds compiler.Diagnostics) {
	for _, d := range ds {
		if d.Severity == compiler.SeverityWarning {
			r.Warning("line %d: %s", d.Line, d.Msg)
			continue
		}
		r.Error("line %d: %s (%s)", d.Line, d.Msg, d.Stage)
	}
}

// CompileError prints a front-end failure with its diagnostics, or the bare
// error if it carries none.
func (r *Reporter) CompileError(err *compiler.CompileError) {
	if len(err.Diags) == 0 {
		r.Error("%v", err)
		return
	}
	r.Diagnostics(err.Diags)
	var se *compiler.SourceError
	if errors.As(err.Err, &se) && se.Snippet != "" {
		fmt.Fprintln(r.w, "  |> "+se.Snippet)
	}
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}

// Listing renders code as an index | instruction table.
func (r *Reporter) Listing(title string, code []tac.Instruction) {
	t := newTable(fmt.Sprintf("%s (%d instructions)", title, len(code)))
	t.AppendHeader(table.Row{"#", "Instruction"})
	for i, in := range code {
		t.AppendRow(table.Row{i, in.String()})
	}
	fmt.Fprintln(r.w, t.Render())
}

// Symbols renders the symbol table, one row per symbol, scopes in creation
// order.
func (r *Reporter) Symbols(syms *compiler.SymbolTable) {
	t := newTable("Symbol table")
	t.AppendHeader(table.Row{"Scope", "Name", "Kind", "Type", "Line", "Params"})
	for _, scope := range syms.Scopes() {
		for _, sym := range syms.Symbols(scope) {
			params := ""
			if sym.Kind == compiler.SymFunction {
				names := make([]string, len(sym.Params))
				for i, p := range sym.Params {
					names[i] = p.TypeName()
				}
				params = strings.Join(names, ", ")
			}
			t.AppendRow(table.Row{scope, sym.Name, sym.Kind, sym.Type.TypeName(), sym.Line, params})
		}
	}
	fmt.Fprintln(r.w, t.Render())
}

// Stats renders which optimizer passes changed the code and how often.
func (r *Reporter) Stats(s optimize.Stats) {
	t := newTable(fmt.Sprintf("Optimizer: %d -> %d instructions in %d rounds", s.Before, s.After, s.Rounds))
	t.AppendHeader(table.Row{"Pass", "Rounds applied"})
	passes := make([]string, 0, len(s.Applied))
	for p := range s.Applied {
		passes = append(passes, string(p))
	}
	sort.Strings(passes)
	for _, p := range passes {
		t.AppendRow(table.Row{p, s.Applied[optimize.Pass(p)]})
	}
	fmt.Fprintln(r.w, t.Render())
}

// Trace renders the effects of an interpreter run.
func (r *Reporter) Trace(effects []vm.Effect) {
	t := newTable(fmt.Sprintf("Run (%d effects)", len(effects)))
	t.AppendHeader(table.Row{"#", "Effect"})
	for i, e := range effects {
		t.AppendRow(table.Row{i, e.String()})
	}
	fmt.Fprintln(r.w, t.Render())
}
