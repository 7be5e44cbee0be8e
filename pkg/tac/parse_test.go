package tac

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    Instruction
		wantErr bool
	}{
		{"t0 = a + b", BinaryOp{Dest: Temp("t0"), Op: "+", Left: Name("a"), Right: Name("b")}, false},
		{"t1 = x <= 10", BinaryOp{Dest: Temp("t1"), Op: "<=", Left: Name("x"), Right: Lit("10")}, false},
		{"t2 = ! a", UnaryOp{Dest: Temp("t2"), Op: "!", X: Name("a")}, false},
		{"x = t0", Assign{Dest: Name("x"), Src: Temp("t0")}, false},
		{"c = ' '", Assign{Dest: Name("c"), Src: Lit("' '")}, false},
		{"c = '#'  # a hash", Assign{Dest: Name("c"), Src: Lit("'#'")}, false},
		{"L0:", Label{Name: "L0"}, false},
		{"func_main:", Label{Name: "func_main", Entry: true}, false},
		{"goto L1", Goto{Label: "L1"}, false},
		{"if !t0 goto L1", IfFalseGoto{Cond: Temp("t0"), Label: "L1"}, false},
		{"param 3.5", Param{Value: Lit("3.5")}, false},
		{"t4 = call foo, 2", Call{Dest: Temp("t4"), Func: "foo", Argc: 2}, false},
		{"x = call foo, 0", Call{Dest: Name("x"), Func: "foo", Argc: 0}, false},
		{"return", Return{}, false},
		{"return t1", Return{Value: Temp("t1"), HasValue: true}, false},
		{"   # only a comment", nil, false},
		{"", nil, false},
		{"if t0 goto L1", nil, true},
		{"t0 = a ^ b", nil, true},
		{"t0 = call foo 2", nil, true},
		{"3 = x", nil, true},
		{"goto", nil, true},
		{"c = 'a", nil, true},
		{"bad label:", nil, true},
	}
	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v; wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseLine(%q) = %#v; want %#v", tc.line, got, tc.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	src := strings.TrimSpace(`
func_add:
t0 = a + b
return t0
func_main:
param 1
param 2
t1 = call add, 2
x = t1
t2 = ! x
if !t2 goto L0
y = 'z'
goto L1
L0:
y = -1.25
L1:
return
`)
	code, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := strings.TrimSpace(Format(code)); got != src {
		t.Errorf("round trip mismatch\n got:\n%s\nwant:\n%s", got, src)
	}
}

func TestParseReportsLine(t *testing.T) {
	_, err := Parse("x = 1\n\nt0 = = 2\n")
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected an error naming line 3, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"Clean", "t0 = a + 1\nif !t0 goto L0\nx = t0\nL0:\nreturn", ""},
		{"Dangling", "goto L3", "undefined label L3"},
		{"DuplicateLabel", "L0:\nL0:", "label L0 defined"},
		{"TempRedefined", "t0 = 1\nt0 = 2", "temporary t0 defined"},
		{"NamesMayRepeat", "x = 1\nx = 2", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(MustParse(tc.src))
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v; want it to mention %q", err, tc.wantErr)
			}
		})
	}
}
