// Package treeimg draws a parsed program as a tree picture: one box per
// syntax node, children below their parent, leaves left to right.
package treeimg

import (
	"fmt"
	"strings"

	"milang/pkg/compiler"
)

// Node is one labeled box of the picture.
type Node struct {
	Label    string
	Children []*Node
}

func leaf(label string) *Node { return &Node{Label: label} }

func branch(label string, children ...*Node) *Node {
	return &Node{Label: label, Children: children}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	c := 1
	for _, ch := range n.Children {
		c += ch.Count()
	}
	return c
}

// Depth returns the number of levels below and including n.
func (n *Node) Depth() int {
	d := 0
	for _, ch := range n.Children {
		d = max(d, ch.Depth())
	}
	return d + 1
}

// String renders the tree as indented text, one node per line.
func (n *Node) String() string {
	var sb strings.Builder
	var walk func(*Node, int)
	walk = func(n *Node, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(n.Label)
		sb.WriteByte('\n')
		for _, ch := range n.Children {
			walk(ch, depth+1)
		}
	}
	walk(n, 0)
	return sb.String()
}

// FromProgram converts a syntax tree to a picture tree.
func FromProgram(prog *compiler.Program) *Node {
	root := branch("Program")
	for _, s := range prog.Stmts {
		root.Children = append(root.Children, fromStmt(s))
	}
	return root
}

func fromBlock(b *compiler.BlockStmt) *Node {
	n := branch("Block")
	for _, s := range b.Stmts {
		n.Children = append(n.Children, fromStmt(s))
	}
	return n
}

func fromStmt(s compiler.Stmt) *Node {
	switch n := s.(type) {
	case *compiler.FunctionDecl:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Type.TypeName() + " " + p.Name
		}
		return branch(fmt.Sprintf("%s %s(%s)", n.ReturnType.TypeName(), n.Name, strings.Join(params, ", ")), fromBlock(n.Body))
	case *compiler.BlockStmt:
		return fromBlock(n)
	case *compiler.VarDecl:
		return leaf(n.Type.TypeName() + " " + n.Name)
	case *compiler.Assignment:
		return branch(n.Name+" =", fromExpr(n.Value))
	case *compiler.ReturnStmt:
		if n.Value == nil {
			return leaf("return")
		}
		return branch("return", fromExpr(n.Value))
	case *compiler.IfStmt:
		out := branch("if", fromExpr(n.Cond), fromBlock(n.Then))
		if n.Else != nil {
			out.Children = append(out.Children, branch("else", fromBlock(n.Else)))
		}
		return out
	case *compiler.CallStmt:
		return fromExpr(n.Call)
	case *compiler.Program:
		return FromProgram(n)
	default:
		panic(fmt.Sprintf("treeimg: unexpected statement %T", s))
	}
}

func fromExpr(e compiler.Expr) *Node {
	switch n := e.(type) {
	case *compiler.Ident:
		return leaf(n.Name)
	case *compiler.IntLit:
		return leaf(n.Text)
	case *compiler.DecimalLit:
		return leaf(n.Text)
	case *compiler.CharLit:
		return leaf(n.Text)
	case *compiler.BinaryExpr:
		return branch(n.Op.Symbol(), fromExpr(n.Left), fromExpr(n.Right))
	case *compiler.NotExpr:
		return branch("!", fromExpr(n.X))
	case *compiler.ParenExpr:
		return branch("( )", fromExpr(n.X))
	case *compiler.CallExpr:
		out := branch(n.Name + "()")
		for _, a := range n.Args {
			out.Children = append(out.Children, fromExpr(a))
		}
		return out
	default:
		panic(fmt.Sprintf("treeimg: unexpected expression %T", e))
	}
}
