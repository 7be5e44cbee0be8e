package compiler

import (
	"fmt"

	"milang/pkg/tac"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_scope_test.go milang/pkg/compiler ScopeCursor

// ScopeCursor is the part of the symbol table the lowering pass touches: the
// current-scope name, switched on function entry and restored on exit.
type ScopeCursor interface {
	Scope() string
	SetScope(name string)
}

// lowerer walks a checked syntax tree and emits three-address code. It holds
// no state of its own beyond the instruction store and the scope cursor.
type lowerer struct {
	gen    *tac.Generator
	scopes ScopeCursor
}

// Lower translates prog into a fresh instruction sequence. Temporary and
// label counters start at zero for every call.
//
// prog must have passed Check. Lower performs no validation; a malformed
// tree is a programming error and panics.
func Lower(prog *Program, scopes ScopeCursor) []tac.Instruction {
	return LowerInto(tac.NewGenerator(), prog, scopes)
}

// LowerInto lowers prog by appending to gen, so callers can inspect the
// generator's counters afterwards.
func LowerInto(gen *tac.Generator, prog *Program, scopes ScopeCursor) []tac.Instruction {
	if prog == nil {
		panic("lower: nil program")
	}
	l := &lowerer{gen: gen, scopes: scopes}
	for _, stmt := range prog.Stmts {
		l.stmt(stmt)
	}
	return gen.Code()
}

func (l *lowerer) stmt(s Stmt) {
	switch n := s.(type) {
	case *FunctionDecl:
		l.function(n)

	case *BlockStmt:
		l.block(n)

	case *VarDecl:
		// Declarations have no runtime effect.

	case *Assignment:
		v := l.expr(n.Value)
		l.gen.EmitAssign(n.Name, v)

	case *ReturnStmt:
		if n.Value == nil {
			l.gen.EmitReturnVoid()
			return
		}
		l.gen.EmitReturn(l.expr(n.Value))

	case *IfStmt:
		l.ifStmt(n)

	case *CallStmt:
		// The call's temporary is allocated and dropped.
		l.expr(n.Call)

	default:
		panic(fmt.Sprintf("lower: unexpected statement %T", s))
	}
}

func (l *lowerer) block(b *BlockStmt) {
	if b == nil {
		panic("lower: nil block")
	}
	for _, stmt := range b.Stmts {
		l.stmt(stmt)
	}
}

// function emits func_<name>, then the body with the cursor on the function's
// scope. The caller's scope is restored when function returns.
func (l *lowerer) function(fn *FunctionDecl) {
	l.gen.EmitFunctionLabel(fn.Name)

	prev := l.scopes.Scope()
	l.scopes.SetScope(fn.Name)
	defer l.scopes.SetScope(prev)

	l.block(fn.Body)
	if fn.ReturnType == VOID {
		l.gen.EmitReturnVoid()
	}
}

// ifStmt linearises if/else:
//
//	if !cond goto Lelse
//	<then>
//	goto Lfin          (else only)
//	Lelse:             (else only)
//	<else>
//	Lfin:
//
// Without an else branch one label serves as both Lelse and Lfin.
func (l *lowerer) ifStmt(n *IfStmt) {
	cond := l.expr(n.Cond)
	labelElse := l.gen.NewLabel()
	labelFin := labelElse
	if n.Else != nil {
		labelFin = l.gen.NewLabel()
	}

	l.gen.EmitIfFalse(cond, labelElse)
	l.block(n.Then)
	if n.Else != nil {
		l.gen.EmitGoto(labelFin)
		l.gen.EmitLabel(labelElse)
		l.block(n.Else)
	}
	l.gen.EmitLabel(labelFin)
}

// expr lowers e and returns the operand holding its value. Names and literals
// come back verbatim without emitting anything.
func (l *lowerer) expr(e Expr) tac.Operand {
	switch n := e.(type) {
	case *Ident:
		return tac.Name(n.Name)

	case *IntLit:
		return tac.Lit(n.Text)

	case *DecimalLit:
		return tac.Lit(n.Text)

	case *CharLit:
		return tac.Lit(n.Text)

	case *ParenExpr:
		return l.expr(n.X)

	case *BinaryExpr:
		left := l.expr(n.Left)
		right := l.expr(n.Right)
		return l.gen.EmitBinary(n.Op.Symbol(), left, right)

	case *NotExpr:
		return l.gen.EmitUnary("!", l.expr(n.X))

	case *CallExpr:
		args := make([]tac.Operand, len(n.Args))
		for i, a := range n.Args {
			args[i] = l.expr(a)
		}
		return l.gen.EmitCall(n.Name, args)
	}
	panic(fmt.Sprintf("lower: unexpected expression %T", e))
}
