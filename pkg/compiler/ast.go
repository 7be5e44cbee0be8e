package compiler

import (
	"fmt"
	"strings"
)

// The syntax tree is a closed set of node types: every Stmt and Expr
// implementation lives in this file, and every consumer switches over all of
// them.

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	String() string
}

// Ident is a read of a named variable.
//
//	return x;
//	       ^  Ident{Name: "x"}
type Ident struct {
	Name string
	Line int
}

func (*Ident) exprNode()        {}
func (i *Ident) String() string { return i.Name }

// IntLit is an integer constant, kept as source text.
type IntLit struct {
	Text string
	Line int
}

func (*IntLit) exprNode()        {}
func (l *IntLit) String() string { return l.Text }

// DecimalLit is a decimal constant such as 2.5, kept as source text.
type DecimalLit struct {
	Text string
	Line int
}

func (*DecimalLit) exprNode()        {}
func (l *DecimalLit) String() string { return l.Text }

// CharLit is a character constant; Text includes the quotes.
type CharLit struct {
	Text string
	Line int
}

func (*CharLit) exprNode()        {}
func (l *CharLit) String() string { return l.Text }

// BinaryExpr represents a binary operation: Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Line  int
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op.Symbol(), b.Right)
}

// NotExpr represents !X.
type NotExpr struct {
	X    Expr
	Line int
}

func (*NotExpr) exprNode()        {}
func (n *NotExpr) String() string { return fmt.Sprintf("(!%s)", n.X) }

// ParenExpr is an explicitly parenthesised expression. It is kept in the tree
// so the tree mirrors the source.
type ParenExpr struct {
	X Expr
}

func (*ParenExpr) exprNode()        {}
func (p *ParenExpr) String() string { return fmt.Sprintf("(%s)", p.X) }

// CallExpr represents name(args).
type CallExpr struct {
	Name string
	Args []Expr
	Line int
}

func (*CallExpr) exprNode() {}
func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
}

// Program is the root: top-level statements in source order.
type Program struct {
	Stmts []Stmt
}

func (*Program) stmtNode() {}
func (p *Program) String() string {
	return fmt.Sprintf("Program(len=%d)", len(p.Stmts))
}

// Param is one function parameter.
type Param struct {
	Type TokenType
	Name string
	Line int
}

// FunctionDecl represents int name(params) { body }
type FunctionDecl struct {
	Name       string
	ReturnType TokenType // INT, FLOAT, CHAR or VOID
	Params     []Param
	Body       *BlockStmt
	Line       int
}

func (*FunctionDecl) stmtNode() {}
func (f *FunctionDecl) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type.TypeName() + " " + p.Name
	}
	return fmt.Sprintf("FunctionDecl(%s %s(%s), body=%s)", f.ReturnType.TypeName(), f.Name, strings.Join(params, ", "), f.Body)
}

// BlockStmt represents { statement; ... }
type BlockStmt struct {
	Stmts []Stmt
	Line  int
}

func (*BlockStmt) stmtNode() {}
func (b *BlockStmt) String() string {
	return fmt.Sprintf("BlockStmt(len=%d)", len(b.Stmts))
}

// VarDecl represents  int name;  The language has no initializers.
type VarDecl struct {
	Type TokenType
	Name string
	Line int
}

func (*VarDecl) stmtNode() {}
func (d *VarDecl) String() string {
	return fmt.Sprintf("VarDecl(%s %s)", d.Type.TypeName(), d.Name)
}

// Assignment represents  name = value;
type Assignment struct {
	Name  string
	Value Expr
	Line  int
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s = %s)", a.Name, a.Value)
}

// ReturnStmt represents  return [expr];  Value is nil for a bare return.
type ReturnStmt struct {
	Value Expr
	Line  int
}

func (*ReturnStmt) stmtNode() {}
func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "ReturnStmt()"
	}
	return fmt.Sprintf("ReturnStmt(%s)", r.Value)
}

// IfStmt represents if (cond) { then } [else { else }]
type IfStmt struct {
	Cond Expr
	Then *BlockStmt
	Else *BlockStmt // may be nil
	Line int
}

func (*IfStmt) stmtNode() {}
func (i *IfStmt) String() string {
	if i.Else != nil {
		return fmt.Sprintf("IfStmt(if %s then %s else %s)", i.Cond, i.Then, i.Else)
	}
	return fmt.Sprintf("IfStmt(if %s then %s)", i.Cond, i.Then)
}

// CallStmt is a call evaluated only for its effects; its result is dropped.
type CallStmt struct {
	Call *CallExpr
}

func (*CallStmt) stmtNode() {}
func (c *CallStmt) String() string {
	return fmt.Sprintf("CallStmt(%s)", c.Call)
}
