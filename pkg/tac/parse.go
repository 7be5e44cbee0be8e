package tac

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// binaryOps lists the operator texts a BinaryOp line may carry.
var binaryOps = map[string]bool{
	"||": true, "&&": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"+": true, "-": true, "*": true, "/": true, "%": true,
}

// Parse reads the canonical text form back into instructions: one instruction
// per line, blank lines ignored, '#' starts a comment.
func Parse(text string) ([]Instruction, error) {
	var code []Instruction
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		in, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}
		if in != nil {
			code = append(code, in)
		}
	}
	return code, nil
}

// MustParse is Parse for fixed inputs; it panics on error.
func MustParse(text string) []Instruction {
	code, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return code
}

func parseLine(raw string, lineNo int) (Instruction, error) {
	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return nil, nil
	}

	if strings.HasSuffix(line, ":") {
		name := strings.TrimSpace(strings.TrimSuffix(line, ":"))
		if !isIdentifier(name) {
			return nil, fmt.Errorf("invalid label '%s' on line %d", name, lineNo)
		}
		return Label{Name: name, Entry: strings.HasPrefix(name, FuncPrefix)}, nil
	}

	fields, err := splitFields(line)
	if err != nil {
		return nil, fmt.Errorf("%v on line %d", err, lineNo)
	}

	switch fields[0] {
	case "goto":
		if len(fields) != 2 || !isIdentifier(fields[1]) {
			return nil, fmt.Errorf("goto expects one label on line %d", lineNo)
		}
		return Goto{Label: fields[1]}, nil

	case "if":
		// if !c goto L
		if len(fields) != 4 || !strings.HasPrefix(fields[1], "!") || fields[2] != "goto" ||
			len(fields[1]) < 2 || !isIdentifier(fields[3]) {
			return nil, fmt.Errorf("malformed conditional jump on line %d", lineNo)
		}
		return IfFalseGoto{Cond: Classify(fields[1][1:]), Label: fields[3]}, nil

	case "param":
		if len(fields) != 2 {
			return nil, fmt.Errorf("param expects one operand on line %d", lineNo)
		}
		return Param{Value: Classify(fields[1])}, nil

	case "return":
		switch len(fields) {
		case 1:
			return Return{}, nil
		case 2:
			return Return{Value: Classify(fields[1]), HasValue: true}, nil
		}
		return nil, fmt.Errorf("return expects at most one operand on line %d", lineNo)
	}

	if len(fields) < 3 || fields[1] != "=" {
		return nil, fmt.Errorf("unrecognised instruction '%s' on line %d", line, lineNo)
	}
	dest := Classify(fields[0])
	if dest.IsLiteral() {
		return nil, fmt.Errorf("cannot assign to literal '%s' on line %d", fields[0], lineNo)
	}
	rhs := fields[2:]

	switch {
	case len(rhs) == 1:
		return Assign{Dest: dest, Src: Classify(rhs[0])}, nil

	case rhs[0] == "call":
		// t = call f, n
		if len(rhs) != 3 || !strings.HasSuffix(rhs[1], ",") {
			return nil, fmt.Errorf("malformed call on line %d", lineNo)
		}
		fn := strings.TrimSuffix(rhs[1], ",")
		argc, err := strconv.Atoi(rhs[2])
		if err != nil || argc < 0 || !isIdentifier(fn) {
			return nil, fmt.Errorf("malformed call on line %d", lineNo)
		}
		return Call{Dest: dest, Func: fn, Argc: argc}, nil

	case len(rhs) == 2 && rhs[0] == "!":
		return UnaryOp{Dest: dest, Op: "!", X: Classify(rhs[1])}, nil

	case len(rhs) == 3 && binaryOps[rhs[1]]:
		return BinaryOp{Dest: dest, Op: rhs[1], Left: Classify(rhs[0]), Right: Classify(rhs[2])}, nil
	}
	return nil, fmt.Errorf("unrecognised instruction '%s' on line %d", line, lineNo)
}

// stripComments cuts the line at the first '#' outside a character literal.
func stripComments(line string) string {
	inChar := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case inChar && c == '\\':
			i++
		case c == '\'':
			inChar = !inChar
		case !inChar && c == '#':
			return line[:i]
		}
	}
	return line
}

// splitFields splits on whitespace but keeps a character literal such as ' '
// in one field.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inChar := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inChar && c == '\\' && i+1 < len(line):
			cur.WriteByte(c)
			i++
			cur.WriteByte(line[i])
		case c == '\'':
			inChar = !inChar
			cur.WriteByte(c)
		case !inChar && (c == ' ' || c == '\t'):
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if inChar {
		return nil, fmt.Errorf("unterminated character literal")
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !(unicode.IsLetter(r) || r == '_') {
			return false
		}
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
