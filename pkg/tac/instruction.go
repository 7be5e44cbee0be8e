package tac

import (
	"fmt"
	"strings"
)

// FuncPrefix is prepended to a function name to form its entry label.
const FuncPrefix = "func_"

// Instruction is one IR operation. The set of implementations is closed: the
// nine types in this file.
type Instruction interface {
	fmt.Stringer
	// Def returns the operand written by the instruction, if any.
	Def() (Operand, bool)
	// Uses returns the operands read by the instruction, in evaluation order.
	Uses() []Operand
	isInstruction()
}

// Assign copies Src into Dest.
//
//	x = t0
type Assign struct {
	Dest Operand
	Src  Operand
}

// BinaryOp computes Left Op Right into Dest. Op is the source operator text.
//
//	t0 = a + b
type BinaryOp struct {
	Dest  Operand
	Op    string
	Left  Operand
	Right Operand
}

// UnaryOp computes Op X into Dest.
//
//	t1 = ! a
type UnaryOp struct {
	Dest Operand
	Op   string
	X    Operand
}

// Label marks a position in the sequence. Entry is set for function entry
// labels (func_<name>), which are call targets rather than jump targets.
//
//	L0:
type Label struct {
	Name  string
	Entry bool
}

// Goto jumps unconditionally.
//
//	goto L1
type Goto struct {
	Label string
}

// IfFalseGoto jumps to Label when Cond is zero.
//
//	if !t0 goto L1
type IfFalseGoto struct {
	Cond  Operand
	Label string
}

// Param pushes one call argument.
//
//	param t0
type Param struct {
	Value Operand
}

// Call invokes Func with the last Argc params and stores the result in Dest.
// Every call has a destination, used or not.
//
//	t1 = call foo, 1
type Call struct {
	Dest Operand
	Func string
	Argc int
}

// Return leaves the current function, with a value when HasValue is set.
//
//	return t1
type Return struct {
	Value    Operand
	HasValue bool
}

func (Assign) isInstruction()      {}
func (BinaryOp) isInstruction()    {}
func (UnaryOp) isInstruction()     {}
func (Label) isInstruction()       {}
func (Goto) isInstruction()        {}
func (IfFalseGoto) isInstruction() {}
func (Param) isInstruction()       {}
func (Call) isInstruction()        {}
func (Return) isInstruction()      {}

func (i Assign) String() string { return i.Dest.Text + " = " + i.Src.Text }
func (i BinaryOp) String() string {
	return fmt.Sprintf("%s = %s %s %s", i.Dest, i.Left, i.Op, i.Right)
}
func (i UnaryOp) String() string     { return fmt.Sprintf("%s = %s %s", i.Dest, i.Op, i.X) }
func (i Label) String() string       { return i.Name + ":" }
func (i Goto) String() string        { return "goto " + i.Label }
func (i IfFalseGoto) String() string { return fmt.Sprintf("if !%s goto %s", i.Cond, i.Label) }
func (i Param) String() string       { return "param " + i.Value.Text }
func (i Call) String() string        { return fmt.Sprintf("%s = call %s, %d", i.Dest, i.Func, i.Argc) }
func (i Return) String() string {
	if i.HasValue {
		return "return " + i.Value.Text
	}
	return "return"
}

func (i Assign) Def() (Operand, bool)    { return i.Dest, true }
func (i BinaryOp) Def() (Operand, bool)  { return i.Dest, true }
func (i UnaryOp) Def() (Operand, bool)   { return i.Dest, true }
func (Label) Def() (Operand, bool)       { return Operand{}, false }
func (Goto) Def() (Operand, bool)        { return Operand{}, false }
func (IfFalseGoto) Def() (Operand, bool) { return Operand{}, false }
func (Param) Def() (Operand, bool)       { return Operand{}, false }
func (i Call) Def() (Operand, bool)      { return i.Dest, true }
func (Return) Def() (Operand, bool)      { return Operand{}, false }
func (i Assign) Uses() []Operand         { return []Operand{i.Src} }
func (i BinaryOp) Uses() []Operand       { return []Operand{i.Left, i.Right} }
func (i UnaryOp) Uses() []Operand        { return []Operand{i.X} }
func (Label) Uses() []Operand            { return nil }
func (Goto) Uses() []Operand             { return nil }
func (i IfFalseGoto) Uses() []Operand    { return []Operand{i.Cond} }
func (i Param) Uses() []Operand          { return []Operand{i.Value} }
func (Call) Uses() []Operand             { return nil }
func (i Return) Uses() []Operand {
	if i.HasValue {
		return []Operand{i.Value}
	}
	return nil
}

// JumpTarget returns the label a Goto or IfFalseGoto refers to.
func JumpTarget(in Instruction) (string, bool) {
	switch n := in.(type) {
	case Goto:
		return n.Label, true
	case IfFalseGoto:
		return n.Label, true
	}
	return "", false
}

// MapUses returns a copy of in with every read operand replaced by f(operand).
// The destination is left alone.
func MapUses(in Instruction, f func(Operand) Operand) Instruction {
	switch n := in.(type) {
	case Assign:
		n.Src = f(n.Src)
		return n
	case BinaryOp:
		n.Left = f(n.Left)
		n.Right = f(n.Right)
		return n
	case UnaryOp:
		n.X = f(n.X)
		return n
	case IfFalseGoto:
		n.Cond = f(n.Cond)
		return n
	case Param:
		n.Value = f(n.Value)
		return n
	case Return:
		if n.HasValue {
			n.Value = f(n.Value)
		}
		return n
	case Label, Goto, Call:
		return n
	}
	panic(fmt.Sprintf("tac: unknown instruction %T", in))
}

// WithDef returns a copy of in writing to dest instead of its own destination.
// It panics for instructions without a destination.
func WithDef(in Instruction, dest Operand) Instruction {
	switch n := in.(type) {
	case Assign:
		n.Dest = dest
		return n
	case BinaryOp:
		n.Dest = dest
		return n
	case UnaryOp:
		n.Dest = dest
		return n
	case Call:
		n.Dest = dest
		return n
	}
	panic(fmt.Sprintf("tac: %T has no destination", in))
}

// Lines renders each instruction in its canonical text form.
func Lines(code []Instruction) []string {
	lines := make([]string, len(code))
	for i, in := range code {
		lines[i] = in.String()
	}
	return lines
}

// Format renders code one instruction per line.
func Format(code []Instruction) string {
	var sb strings.Builder
	for _, in := range code {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
