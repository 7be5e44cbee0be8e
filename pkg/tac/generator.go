package tac

import "fmt"

// Generator is the instruction store used during lowering. It owns the
// temporary and label counters of one compilation unit; both start at 0 and
// are independent of each other.
type Generator struct {
	code       []Instruction
	nextTemp   int
	nextLabel  int
	entryNames map[string]bool
}

func NewGenerator() *Generator {
	return &Generator{entryNames: make(map[string]bool)}
}

// NewTemp allocates the next temporary, t<N>.
func (g *Generator) NewTemp() Operand {
	t := Temp(fmt.Sprintf("t%d", g.nextTemp))
	g.nextTemp++
	return t
}

// NewLabel allocates the next label name, L<N>.
func (g *Generator) NewLabel() string {
	l := fmt.Sprintf("L%d", g.nextLabel)
	g.nextLabel++
	return l
}

// Append adds in at the end of the sequence. Sequence order is execution order.
func (g *Generator) Append(in Instruction) {
	g.code = append(g.code, in)
}

// EmitBinary emits dest = left op right into a fresh temporary and returns it.
func (g *Generator) EmitBinary(op string, left, right Operand) Operand {
	dest := g.NewTemp()
	g.Append(BinaryOp{Dest: dest, Op: op, Left: left, Right: right})
	return dest
}

// EmitUnary emits dest = op x into a fresh temporary and returns it.
func (g *Generator) EmitUnary(op string, x Operand) Operand {
	dest := g.NewTemp()
	g.Append(UnaryOp{Dest: dest, Op: op, X: x})
	return dest
}

// EmitAssign emits id = src. No temporary is allocated.
func (g *Generator) EmitAssign(id string, src Operand) {
	g.Append(Assign{Dest: Name(id), Src: src})
}

func (g *Generator) EmitLabel(name string) {
	g.Append(Label{Name: name})
}

// EmitFunctionLabel emits the entry label func_<name>.
func (g *Generator) EmitFunctionLabel(name string) {
	if g.entryNames[name] {
		panic(fmt.Sprintf("tac: function %q emitted twice", name))
	}
	g.entryNames[name] = true
	g.Append(Label{Name: FuncPrefix + name, Entry: true})
}

func (g *Generator) EmitIfFalse(cond Operand, label string) {
	g.Append(IfFalseGoto{Cond: cond, Label: label})
}

func (g *Generator) EmitGoto(label string) {
	g.Append(Goto{Label: label})
}

// EmitCall emits one param per argument, in order, followed by a call whose
// result lands in a fresh temporary. The temporary is allocated whatever the
// callee returns.
func (g *Generator) EmitCall(name string, args []Operand) Operand {
	for _, a := range args {
		g.Append(Param{Value: a})
	}
	dest := g.NewTemp()
	g.Append(Call{Dest: dest, Func: name, Argc: len(args)})
	return dest
}

func (g *Generator) EmitReturn(value Operand) {
	g.Append(Return{Value: value, HasValue: true})
}

func (g *Generator) EmitReturnVoid() {
	g.Append(Return{})
}

// Len returns the number of instructions emitted so far.
func (g *Generator) Len() int { return len(g.code) }

// Temps returns how many temporaries have been allocated.
func (g *Generator) Temps() int { return g.nextTemp }

// Labels returns how many labels have been allocated.
func (g *Generator) Labels() int { return g.nextLabel }

// Code returns a copy of the emitted sequence.
func (g *Generator) Code() []Instruction {
	out := make([]Instruction, len(g.code))
	copy(out, g.code)
	return out
}
