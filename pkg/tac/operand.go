// Package tac holds the three-address-code intermediate representation:
// operands, the closed set of instructions, the Generator that allocates
// temporaries/labels and appends instructions, and the canonical text form.
//
// Pipeline position: syntax tree → Lower → []Instruction → optimize → text
package tac

import (
	"strconv"
	"strings"
)

// OperandKind tells what an Operand's text refers to.
type OperandKind int

const (
	KindTemp    OperandKind = iota // compiler temporary, t<N>
	KindLiteral                    // literal text: 42, 3.5, 'a'
	KindName                       // source-level identifier
)

func (k OperandKind) String() string {
	switch k {
	case KindTemp:
		return "temp"
	case KindLiteral:
		return "literal"
	case KindName:
		return "name"
	}
	return "OperandKind(" + strconv.Itoa(int(k)) + ")"
}

// Operand is a value reference inside an instruction. It is a plain value and
// is always copied.
type Operand struct {
	Kind OperandKind
	Text string
}

func Temp(name string) Operand { return Operand{Kind: KindTemp, Text: name} }
func Lit(text string) Operand  { return Operand{Kind: KindLiteral, Text: text} }
func Name(id string) Operand   { return Operand{Kind: KindName, Text: id} }

func (o Operand) String() string { return o.Text }

func (o Operand) IsTemp() bool    { return o.Kind == KindTemp }
func (o Operand) IsLiteral() bool { return o.Kind == KindLiteral }
func (o Operand) IsName() bool    { return o.Kind == KindName }

// TempIndex returns N for a temporary named t<N>.
func TempIndex(name string) (int, bool) {
	if len(name) < 2 || name[0] != 't' {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || strconv.Itoa(n) != name[1:] {
		return 0, false
	}
	return n, true
}

// LabelIndex returns N for a generated label named L<N>.
func LabelIndex(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'L' {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || strconv.Itoa(n) != name[1:] {
		return 0, false
	}
	return n, true
}

// Classify recovers an Operand from its text form. The text form is
// ambiguous for source identifiers spelled like temporaries (t0, t1, ...);
// those come back as temporaries.
func Classify(text string) Operand {
	if _, ok := TempIndex(text); ok {
		return Temp(text)
	}
	if isLiteralText(text) {
		return Lit(text)
	}
	return Name(text)
}

func isLiteralText(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, "'") {
		return true
	}
	c := text[0]
	if c == '-' || c == '+' {
		if len(text) == 1 {
			return false
		}
		c = text[1]
	}
	return (c >= '0' && c <= '9') || c == '.'
}
