package tac

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrUnknownOp      = errors.New("unknown operator")
)

// Value is a runtime number. Integers and decimals are kept apart so that
// 7 / 2 stays 3 while 7.0 / 2 is 3.5.
type Value struct {
	I     int64
	F     float64
	Float bool
}

func IntValue(i int64) Value     { return Value{I: i} }
func FloatValue(f float64) Value { return Value{F: f, Float: true} }

func boolValue(b bool) Value {
	if b {
		return IntValue(1)
	}
	return IntValue(0)
}

func (v Value) float() float64 {
	if v.Float {
		return v.F
	}
	return float64(v.I)
}

// Truthy reports whether v is nonzero.
func (v Value) Truthy() bool {
	if v.Float {
		return v.F != 0
	}
	return v.I != 0
}

// String renders v as literal text. Decimals always carry a '.', so the text
// parses back to a decimal.
func (v Value) String() string {
	if !v.Float {
		return strconv.FormatInt(v.I, 10)
	}
	s := strconv.FormatFloat(v.F, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseNumber parses integer or decimal literal text. Character literals and
// anything else are rejected.
func ParseNumber(text string) (Value, bool) {
	if !isNumberText(text) {
		return Value{}, false
	}
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, false
		}
		return FloatValue(f), true
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Value{}, false
	}
	return IntValue(i), true
}

func isNumberText(text string) bool {
	s := strings.TrimPrefix(text, "-")
	if s == "" {
		return false
	}
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// ParseChar parses a character literal such as 'a' or '\n' into its code.
func ParseChar(text string) (Value, bool) {
	if len(text) < 3 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return Value{}, false
	}
	body := text[1 : len(text)-1]
	if len(body) == 2 && body[0] == '\\' {
		switch body[1] {
		case 'n':
			return IntValue('\n'), true
		case 't':
			return IntValue('\t'), true
		case 'r':
			return IntValue('\r'), true
		case '0':
			return IntValue(0), true
		case '\\', '\'', '"':
			return IntValue(int64(body[1])), true
		}
		return Value{}, false
	}
	r := []rune(body)
	if len(r) != 1 {
		return Value{}, false
	}
	return IntValue(int64(r[0])), true
}

// EvalBinary applies a source-level binary operator.
func EvalBinary(op string, l, r Value) (Value, error) {
	switch op {
	case "&&":
		return boolValue(l.Truthy() && r.Truthy()), nil
	case "||":
		return boolValue(l.Truthy() || r.Truthy()), nil
	}

	if l.Float || r.Float {
		a, b := l.float(), r.float()
		switch op {
		case "+":
			return checkFloat(a + b)
		case "-":
			return checkFloat(a - b)
		case "*":
			return checkFloat(a * b)
		case "/":
			if b == 0 {
				return Value{}, ErrDivisionByZero
			}
			return checkFloat(a / b)
		case "%":
			if b == 0 {
				return Value{}, ErrDivisionByZero
			}
			return checkFloat(math.Mod(a, b))
		case "==":
			return boolValue(a == b), nil
		case "!=":
			return boolValue(a != b), nil
		case "<":
			return boolValue(a < b), nil
		case ">":
			return boolValue(a > b), nil
		case "<=":
			return boolValue(a <= b), nil
		case ">=":
			return boolValue(a >= b), nil
		}
		return Value{}, fmt.Errorf("%w %q", ErrUnknownOp, op)
	}

	a, b := l.I, r.I
	switch op {
	case "+":
		return IntValue(a + b), nil
	case "-":
		return IntValue(a - b), nil
	case "*":
		return IntValue(a * b), nil
	case "/":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return IntValue(a / b), nil
	case "%":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return IntValue(a % b), nil
	case "==":
		return boolValue(a == b), nil
	case "!=":
		return boolValue(a != b), nil
	case "<":
		return boolValue(a < b), nil
	case ">":
		return boolValue(a > b), nil
	case "<=":
		return boolValue(a <= b), nil
	case ">=":
		return boolValue(a >= b), nil
	}
	return Value{}, fmt.Errorf("%w %q", ErrUnknownOp, op)
}

// EvalUnary applies a source-level unary operator. Only "!" exists.
func EvalUnary(op string, x Value) (Value, error) {
	if op != "!" {
		return Value{}, fmt.Errorf("%w %q", ErrUnknownOp, op)
	}
	return boolValue(!x.Truthy()), nil
}

func checkFloat(f float64) (Value, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Value{}, fmt.Errorf("decimal result out of range")
	}
	return FloatValue(f), nil
}
