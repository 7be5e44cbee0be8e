package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"milang/pkg/tac"
)

func traceLines(effects []Effect) []string {
	lines := make([]string, len(effects))
	for i, e := range effects {
		lines[i] = e.String()
	}
	return lines
}

func assertTrace(t *testing.T, got []Effect, want ...string) {
	t.Helper()
	lines := traceLines(got)
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("trace mismatch\ngot:\n  %s\nwant:\n  %s", strings.Join(lines, "\n  "), strings.Join(want, "\n  "))
	}
}

func TestExecuteStraightLine(t *testing.T) {
	code := tac.MustParse(`
t0 = 1 + 2
x = t0
t1 = x * 4
y = t1
return y
`)
	m, err := New(code)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertTrace(t, m.Trace(),
		"assign global.x = 3",
		"assign global.y = 12",
		"return 12 from global",
	)
	if v, ok := m.Result(); !ok || v != tac.IntValue(12) {
		t.Errorf("expected result 12, got %v (%v)", v, ok)
	}
	if v, ok := m.Global("x"); !ok || v != tac.IntValue(3) {
		t.Errorf("expected x == 3, got %v", v)
	}
	if !m.Halted {
		t.Error("expected halted")
	}
}

func TestExecuteBranches(t *testing.T) {
	code := tac.MustParse(`
if !a goto L0
b = 1
goto L1
L0:
b = 2
L1:
`)
	tests := []struct {
		name string
		a    string
		want string
	}{
		{"taken", "1", "assign global.b = 1"},
		{"not taken", "0", "assign global.b = 2"},
		{"zero decimal", "0.0", "assign global.b = 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := append([]tac.Instruction{tac.Assign{Dest: tac.Name("a"), Src: tac.Lit(tt.a)}}, code...)
			effects, err := Execute(prog)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := effects[len(effects)-1].String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteCall(t *testing.T) {
	code := tac.MustParse(`
func_add:
t0 = a + b
sum = t0
return sum
func_main:
param 2
param 3
t1 = call add, 2
r = t1
return
`)
	sigs := map[string]Signature{
		"add":  {Params: []string{"a", "b"}, Locals: []string{"sum"}},
		"main": {},
	}
	var out bytes.Buffer
	effects, err := Execute(code, WithSignatures(sigs), WithEntry("main"), WithOutput(&out))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	assertTrace(t, effects,
		"call main, 0",
		"param 2",
		"param 3",
		"call add, 2",
		"assign add.sum = 5",
		"return 5 from add",
		"assign global.r = 5",
		"return from main",
	)
	if !strings.Contains(out.String(), "assign add.sum = 5\n") {
		t.Errorf("output writer missed effects: %q", out.String())
	}
}

func TestRecursionKeepsFramesApart(t *testing.T) {
	// fact(n) = n <= 1 ? 1 : n * fact(n - 1)
	code := tac.MustParse(`
func_fact:
t0 = n <= 1
if !t0 goto L0
return 1
L0:
t1 = n - 1
param t1
t2 = call fact, 1
t3 = n * t2
return t3
`)
	m, err := New(append(code, tac.MustParse("func_start:\nparam 5\nt4 = call fact, 1\nr = t4\nreturn")...),
		WithSignatures(map[string]Signature{"fact": {Params: []string{"n"}}, "start": {}}),
		WithEntry("start"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v, _ := m.Global("r"); v != tac.IntValue(120) {
		t.Errorf("fact(5) = %v, want 120", v)
	}
}

func TestFallingIntoEntryLabel(t *testing.T) {
	t.Run("top level halts", func(t *testing.T) {
		effects, err := Execute(tac.MustParse("x = 1\nfunc_f:\nx = 2\nreturn"))
		if err != nil {
			t.Fatal(err)
		}
		assertTrace(t, effects, "assign global.x = 1")
	})
	t.Run("inside a function returns", func(t *testing.T) {
		code := tac.MustParse("func_f:\ny = 1\nfunc_g:\ny = 2\nreturn")
		effects, err := Execute(code, WithSignatures(map[string]Signature{"f": {}}), WithEntry("f"))
		if err != nil {
			t.Fatal(err)
		}
		assertTrace(t, effects, "call f, 0", "assign global.y = 1", "return from f")
	})
	t.Run("end of code inside a function returns", func(t *testing.T) {
		code := tac.MustParse("func_f:\ny = 1")
		effects, err := Execute(code, WithSignatures(map[string]Signature{"f": {}}), WithEntry("f"))
		if err != nil {
			t.Fatal(err)
		}
		assertTrace(t, effects, "call f, 0", "assign global.y = 1", "return from f")
	})
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		opts []Option
		want error
	}{
		{"unknown label", "goto L9", nil, ErrUnknownLabel},
		{"unknown function", "t0 = call nope, 0", nil, ErrUnknownFunction},
		{"division by zero", "x = 0\nt0 = 4 / x", nil, tac.ErrDivisionByZero},
		{"unset temporary", "x = t3", nil, ErrUnset},
		{"unset variable", "x = y", nil, ErrUnset},
		{"missing params", "t0 = call f, 1\nfunc_f:\nreturn", nil, ErrArgCount},
		{"step limit", "L0:\ngoto L0", []Option{WithMaxSteps(50)}, ErrStepLimit},
		{"call depth", "func_f:\nt0 = call f, 0", []Option{WithEntry("f"), WithMaxDepth(8)}, ErrCallDepth},
		{"no value for a named destination", "func_f:\nreturn\nfunc_main:\nx = call f, 0\nreturn", []Option{WithEntry("main")}, ErrUnset},
		{"end of callee with a named destination", "func_main:\nx = call f, 0\nreturn\nfunc_f:", []Option{WithEntry("main")}, ErrUnset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(tac.MustParse(tt.code), tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewRejectsDuplicateLabels(t *testing.T) {
	if _, err := New(tac.MustParse("L0:\nL0:")); err == nil {
		t.Fatal("expected an error for a duplicate label")
	}
}

func TestStepAfterHalt(t *testing.T) {
	m, err := New(tac.MustParse("return 1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	steps := m.Steps
	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if m.Steps != steps {
		t.Errorf("Step after halt advanced the step counter")
	}
}

func TestValuelessReturnIntoTemporary(t *testing.T) {
	code := tac.MustParse("func_f:\nreturn\nfunc_main:\nt0 = call f, 0\nx = 1\nreturn")
	effects, err := Execute(code, WithEntry("main"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	assertTrace(t, effects,
		"call main, 0",
		"call f, 0",
		"return from f",
		"assign global.x = 1",
		"return from main",
	)
}
