package compiler

// reportUncalled warns about functions that cannot be reached from the
// program's entry points: top-level statements and main.
func (c *checker) reportUncalled(prog *Program) {
	funcs := make(map[string]*FunctionDecl)
	for _, s := range prog.Stmts {
		if f, ok := s.(*FunctionDecl); ok && c.declared[f] {
			funcs[f.Name] = f
		}
	}

	reachable := reachableFunctions(prog, funcs)
	for _, s := range prog.Stmts {
		if f, ok := s.(*FunctionDecl); ok && c.declared[f] && !reachable[f.Name] {
			c.warnf(f.Line, "function %s is never called", f.Name)
		}
	}
}

// reachableFunctions returns the names of all functions transitively called
// from top-level code or from main.
func reachableFunctions(prog *Program, funcs map[string]*FunctionDecl) map[string]bool {
	reachable := make(map[string]bool)
	var worklist []string

	addReachable := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}

	if _, ok := funcs["main"]; ok {
		addReachable("main")
	}

	// Top-level statements run in order, so every call they make is a root.
	for _, s := range prog.Stmts {
		if _, ok := s.(*FunctionDecl); ok {
			continue
		}
		calls := make(map[string]bool)
		findCallsStmt(s, calls)
		for call := range calls {
			addReachable(call)
		}
	}

	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]

		fDecl, exists := funcs[curr]
		if !exists {
			// undefined; already reported as an error
			continue
		}

		calls := make(map[string]bool)
		findCallsStmt(fDecl.Body, calls)
		for call := range calls {
			addReachable(call)
		}
	}

	return reachable
}

// findCallsExpr recursively extracts function call names from an expression.
func findCallsExpr(e Expr, calls map[string]bool) {
	switch n := e.(type) {
	case *CallExpr:
		calls[n.Name] = true
		for _, arg := range n.Args {
			findCallsExpr(arg, calls)
		}
	case *BinaryExpr:
		findCallsExpr(n.Left, calls)
		findCallsExpr(n.Right, calls)
	case *NotExpr:
		findCallsExpr(n.X, calls)
	case *ParenExpr:
		findCallsExpr(n.X, calls)
	case *Ident, *IntLit, *DecimalLit, *CharLit, nil:
		// No function calls here
	}
}

// findCallsStmt recursively extracts function call names from a statement.
func findCallsStmt(s Stmt, calls map[string]bool) {
	switch n := s.(type) {
	case *Assignment:
		findCallsExpr(n.Value, calls)
	case *ReturnStmt:
		findCallsExpr(n.Value, calls)
	case *BlockStmt:
		for _, child := range n.Stmts {
			findCallsStmt(child, calls)
		}
	case *IfStmt:
		findCallsExpr(n.Cond, calls)
		findCallsStmt(n.Then, calls)
		if n.Else != nil {
			findCallsStmt(n.Else, calls)
		}
	case *CallStmt:
		findCallsExpr(n.Call, calls)
	case *VarDecl, *FunctionDecl:
		// No executable function calls inside declarations
	}
}

// reportUnreachableTopLevel warns about top-level code placed after a
// function when there is no main. Execution starts at the first instruction
// and stops on reaching a function entry, so that code never runs.
func (c *checker) reportUnreachableTopLevel(prog *Program) {
	if sym, ok := c.syms.LookupIn(GlobalScope, "main"); ok && sym.Kind == SymFunction {
		return
	}
	var first *FunctionDecl
	for _, s := range prog.Stmts {
		switch n := s.(type) {
		case *FunctionDecl:
			if first == nil {
				first = n
			}
		case *VarDecl:
			// Declarations emit no code.
		default:
			if first != nil {
				c.warnf(stmtLine(s), "top-level code after function %s (line %d) never runs; move it above the function or into main", first.Name, first.Line)
				return
			}
		}
	}
}

func stmtLine(s Stmt) int {
	switch n := s.(type) {
	case *BlockStmt:
		return n.Line
	case *Assignment:
		return n.Line
	case *ReturnStmt:
		return n.Line
	case *IfStmt:
		return n.Line
	case *CallStmt:
		return n.Call.Line
	case *VarDecl:
		return n.Line
	case *FunctionDecl:
		return n.Line
	}
	return 0
}
