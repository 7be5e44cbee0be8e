package compiler

import (
	"fmt"

	"milang/pkg/tac"
)

// checker walks the tree once, filling the symbol table and collecting
// diagnostics. It never stops early: every error in the program is reported.
type checker struct {
	syms    *SymbolTable
	diags   Diagnostics
	fn      *FunctionDecl // function being checked, nil at top level
	returns bool          // fn contains a return statement
	warned  map[*Symbol]bool

	declared map[*FunctionDecl]bool
}

// Check performs semantic analysis of prog. Errors in the returned
// diagnostics mean the program must not be lowered; warnings do not.
func Check(prog *Program) (*SymbolTable, Diagnostics) {
	c := &checker{
		syms:     NewSymbolTable(),
		warned:   make(map[*Symbol]bool),
		declared: make(map[*FunctionDecl]bool),
	}
	c.declareFunctions(prog)
	for _, stmt := range prog.Stmts {
		c.stmt(stmt)
	}
	c.reportUnused()
	c.reportUncalled(prog)
	c.reportUnreachableTopLevel(prog)
	c.diags.sortByLine()
	return c.syms, c.diags
}

func (c *checker) errorf(line int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Stage: StageSemantic, Severity: SeverityError, Line: line, Msg: fmt.Sprintf(format, args...)})
}

func (c *checker) warnf(line int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Stage: StageSemantic, Severity: SeverityWarning, Line: line, Msg: fmt.Sprintf(format, args...)})
}

// declareFunctions enters every function into the global scope up front so
// calls may precede the callee's declaration.
func (c *checker) declareFunctions(prog *Program) {
	for _, stmt := range prog.Stmts {
		fn, ok := stmt.(*FunctionDecl)
		if !ok {
			continue
		}
		if fn.Name == GlobalScope {
			c.errorf(fn.Line, "%q is reserved and cannot name a function", fn.Name)
			continue
		}
		params := make([]TokenType, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		if _, err := c.syms.Define(Symbol{Name: fn.Name, Kind: SymFunction, Type: fn.ReturnType, Line: fn.Line, Params: params}); err != nil {
			c.errorf(fn.Line, "function %v", err)
			continue
		}
		c.syms.AddScope(fn.Name)
		c.declared[fn] = true
	}
}

// checkName warns about identifiers that read like compiler-generated names
// in the IR listing.
func (c *checker) checkName(name string, line int) {
	if _, ok := tac.TempIndex(name); ok {
		c.warnf(line, "identifier %s looks like a compiler temporary; IR listings will be ambiguous", name)
	}
	if _, ok := tac.LabelIndex(name); ok {
		c.warnf(line, "identifier %s looks like a compiler label; IR listings will be ambiguous", name)
	}
}

func (c *checker) stmt(s Stmt) {
	switch n := s.(type) {
	case *FunctionDecl:
		c.function(n)

	case *BlockStmt:
		for _, child := range n.Stmts {
			c.stmt(child)
		}

	case *VarDecl:
		if n.Type == VOID {
			c.errorf(n.Line, "variable %s declared void", n.Name)
			return
		}
		c.checkName(n.Name, n.Line)
		if prev, err := c.syms.Define(Symbol{Name: n.Name, Kind: SymVariable, Type: n.Type, Line: n.Line}); err != nil {
			if prev.Kind == SymFunction {
				c.errorf(n.Line, "variable %s redeclares function declared on line %d", n.Name, prev.Line)
				return
			}
			c.errorf(n.Line, "redeclaration: %v", err)
		}

	case *Assignment:
		c.expr(n.Value)
		sym, ok := c.syms.Lookup(n.Name)
		switch {
		case !ok:
			c.errorf(n.Line, "assignment to undeclared variable %s", n.Name)
		case sym.Kind == SymFunction:
			c.errorf(n.Line, "cannot assign to function %s", n.Name)
		default:
			sym.Assigned = true
		}

	case *ReturnStmt:
		if n.Value != nil {
			c.expr(n.Value)
		}
		if c.fn == nil {
			return
		}
		c.returns = true
		if c.fn.ReturnType == VOID && n.Value != nil {
			c.errorf(n.Line, "void function %s cannot return a value", c.fn.Name)
		}
		if c.fn.ReturnType != VOID && n.Value == nil {
			c.errorf(n.Line, "function %s must return a %s value", c.fn.Name, c.fn.ReturnType.TypeName())
		}

	case *IfStmt:
		c.expr(n.Cond)
		c.stmt(n.Then)
		if n.Else != nil {
			c.stmt(n.Else)
		}

	case *CallStmt:
		c.call(n.Call)

	default:
		panic(fmt.Sprintf("check: unexpected statement %T", s))
	}
}

func (c *checker) function(fn *FunctionDecl) {
	if !c.declared[fn] {
		return
	}

	prev := c.syms.Scope()
	c.syms.SetScope(fn.Name)
	defer c.syms.SetScope(prev)

	c.fn, c.returns = fn, false
	defer func() { c.fn = nil }()

	for i, p := range fn.Params {
		c.checkName(p.Name, p.Line)
		if _, err := c.syms.Define(Symbol{Name: p.Name, Kind: SymParam, Type: p.Type, Line: p.Line, Index: i, Assigned: true}); err != nil {
			c.errorf(p.Line, "duplicate parameter %s in function %s", p.Name, fn.Name)
		}
	}
	c.stmt(fn.Body)

	if fn.ReturnType != VOID && !c.returns {
		c.warnf(fn.Line, "function %s is declared %s but never returns a value", fn.Name, fn.ReturnType.TypeName())
	}
}

func (c *checker) expr(e Expr) {
	switch n := e.(type) {
	case *Ident:
		sym, ok := c.syms.Lookup(n.Name)
		if !ok {
			c.errorf(n.Line, "undeclared variable %s", n.Name)
			return
		}
		if sym.Kind == SymFunction {
			c.errorf(n.Line, "function %s used as a variable", n.Name)
			return
		}
		if !sym.Assigned && !c.warned[sym] {
			c.warned[sym] = true
			c.warnf(n.Line, "variable %s is read before it is assigned", n.Name)
		}
		sym.Used = true

	case *IntLit, *DecimalLit, *CharLit:

	case *BinaryExpr:
		c.expr(n.Left)
		c.expr(n.Right)

	case *NotExpr:
		c.expr(n.X)

	case *ParenExpr:
		c.expr(n.X)

	case *CallExpr:
		c.call(n)

	default:
		panic(fmt.Sprintf("check: unexpected expression %T", e))
	}
}

func (c *checker) call(call *CallExpr) {
	for _, arg := range call.Args {
		c.expr(arg)
	}
	sym, ok := c.syms.Lookup(call.Name)
	if !ok {
		c.errorf(call.Line, "call of undefined function %s", call.Name)
		return
	}
	if sym.Kind != SymFunction {
		c.errorf(call.Line, "%s is a %s, not a function", call.Name, sym.Kind)
		return
	}
	if len(call.Args) != len(sym.Params) {
		c.errorf(call.Line, "function %s expects %d argument(s), got %d", call.Name, len(sym.Params), len(call.Args))
	}
	sym.Used = true
}

func (c *checker) reportUnused() {
	for _, scope := range c.syms.Scopes() {
		for _, sym := range c.syms.Symbols(scope) {
			if sym.Kind == SymVariable && !sym.Used {
				c.warnf(sym.Line, "variable %s is declared but never read", sym.Name)
			}
		}
	}
}
