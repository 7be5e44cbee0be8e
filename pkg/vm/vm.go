// Package vm executes three-address code directly. It exists to make
// behaviour observable: a run yields the trace of named assignments, call
// arguments, calls and returns, which must not change under optimization.
package vm

import (
	"errors"
	"fmt"
	"io"

	"milang/pkg/tac"
)

// TopLevel is the scope name of code outside any function.
const TopLevel = "global"

const (
	DefaultMaxSteps = 100000
	DefaultMaxDepth = 256
)

var (
	ErrUnknownLabel    = errors.New("unknown label")
	ErrUnknownFunction = errors.New("unknown function")
	ErrArgCount        = errors.New("argument count mismatch")
	ErrUnset           = errors.New("read of unset value")
	ErrBadLiteral      = errors.New("malformed literal")
	ErrStepLimit       = errors.New("step limit exceeded")
	ErrCallDepth       = errors.New("call depth limit exceeded")
)

// Signature lists the names a function binds in its own frame. Any other
// name it touches is global.
type Signature struct {
	Params []string
	Locals []string
}

type frame struct {
	fn     string
	owned  map[string]bool // params and locals
	vars   map[string]tac.Value
	temps  map[string]tac.Value
	ret    int         // instruction index to resume at
	dest   tac.Operand // caller's call destination
	caller *frame
}

type VM struct {
	code   []tac.Instruction
	labels map[string]int
	sigs   map[string]Signature

	PC     int
	Halted bool
	Steps  int

	MaxSteps int
	MaxDepth int

	// Output, when set, receives each effect as a line as it happens.
	Output io.Writer

	entry   string
	globals map[string]tac.Value
	frame   *frame
	depth   int
	pending []tac.Value
	trace   []Effect
	result  *tac.Value
}

type Option func(*VM)

// WithSignatures supplies parameter and local names per function.
func WithSignatures(sigs map[string]Signature) Option {
	return func(m *VM) { m.sigs = sigs }
}

func WithMaxSteps(n int) Option {
	return func(m *VM) { m.MaxSteps = n }
}

func WithMaxDepth(n int) Option {
	return func(m *VM) { m.MaxDepth = n }
}

func WithOutput(w io.Writer) Option {
	return func(m *VM) { m.Output = w }
}

// WithEntry starts the run with a zero-argument call to fn instead of at
// instruction 0. The program halts when fn returns.
func WithEntry(fn string) Option {
	return func(m *VM) { m.entry = fn }
}

// New prepares code for execution from instruction 0 at top level.
func New(code []tac.Instruction, opts ...Option) (*VM, error) {
	m := &VM{
		code:     code,
		labels:   make(map[string]int),
		sigs:     make(map[string]Signature),
		MaxSteps: DefaultMaxSteps,
		MaxDepth: DefaultMaxDepth,
		globals:  make(map[string]tac.Value),
	}
	for _, opt := range opts {
		opt(m)
	}
	for i, in := range code {
		if l, ok := in.(tac.Label); ok {
			if _, dup := m.labels[l.Name]; dup {
				return nil, fmt.Errorf("duplicate label %s at %d", l.Name, i)
			}
			m.labels[l.Name] = i
		}
	}
	m.frame = &frame{fn: TopLevel, temps: make(map[string]tac.Value)}
	if m.entry != "" {
		m.PC = len(code)
		if err := m.call(tac.Call{Dest: tac.Temp(""), Func: m.entry}); err != nil {
			return nil, err
		}
		m.frame.ret = len(code)
	}
	return m, nil
}

// Trace returns the effects recorded so far.
func (m *VM) Trace() []Effect {
	return append([]Effect(nil), m.trace...)
}

// Result returns the value of a top-level return, if the program ended with one.
func (m *VM) Result() (tac.Value, bool) {
	if m.result == nil {
		return tac.Value{}, false
	}
	return *m.result, true
}

// Global returns the current value of a global variable.
func (m *VM) Global(name string) (tac.Value, bool) {
	v, ok := m.globals[name]
	return v, ok
}

func (m *VM) record(e Effect) {
	m.trace = append(m.trace, e)
	if m.Output != nil {
		fmt.Fprintln(m.Output, e)
	}
}

// owner returns the frame-local variable map that holds name, or nil for a
// global.
func (m *VM) owner(name string) (map[string]tac.Value, string) {
	if m.frame.owned[name] {
		return m.frame.vars, m.frame.fn
	}
	return m.globals, TopLevel
}

func (m *VM) value(o tac.Operand) (tac.Value, error) {
	switch o.Kind {
	case tac.KindLiteral:
		if v, ok := tac.ParseNumber(o.Text); ok {
			return v, nil
		}
		if v, ok := tac.ParseChar(o.Text); ok {
			return v, nil
		}
		return tac.Value{}, fmt.Errorf("%w %s", ErrBadLiteral, o.Text)
	case tac.KindTemp:
		v, ok := m.frame.temps[o.Text]
		if !ok {
			return tac.Value{}, fmt.Errorf("%w: temporary %s", ErrUnset, o.Text)
		}
		return v, nil
	}
	vars, _ := m.owner(o.Text)
	v, ok := vars[o.Text]
	if !ok {
		return tac.Value{}, fmt.Errorf("%w: variable %s", ErrUnset, o.Text)
	}
	return v, nil
}

// store writes v to dest in the current frame, recording named writes.
func (m *VM) store(dest tac.Operand, v tac.Value) {
	if dest.IsTemp() {
		m.frame.temps[dest.Text] = v
		return
	}
	vars, scope := m.owner(dest.Text)
	vars[dest.Text] = v
	m.record(Effect{Kind: EffectAssign, Scope: scope, Name: dest.Text, Value: v})
}

func (m *VM) jump(label string) error {
	idx, ok := m.labels[label]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownLabel, label)
	}
	m.PC = idx
	return nil
}

func (m *VM) call(c tac.Call) error {
	if m.depth >= m.MaxDepth {
		return ErrCallDepth
	}
	entry, ok := m.labels[tac.FuncPrefix+c.Func]
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownFunction, c.Func)
	}
	if c.Argc > len(m.pending) {
		return fmt.Errorf("%w: call %s wants %d params, %d pushed", ErrArgCount, c.Func, c.Argc, len(m.pending))
	}
	sig := m.sigs[c.Func]
	if len(sig.Params) != c.Argc {
		return fmt.Errorf("%w: %s takes %d, called with %d", ErrArgCount, c.Func, len(sig.Params), c.Argc)
	}

	args := m.pending[len(m.pending)-c.Argc:]
	m.pending = m.pending[:len(m.pending)-c.Argc]

	f := &frame{
		fn:     c.Func,
		owned:  make(map[string]bool),
		vars:   make(map[string]tac.Value),
		temps:  make(map[string]tac.Value),
		ret:    m.PC + 1,
		dest:   c.Dest,
		caller: m.frame,
	}
	for _, n := range sig.Locals {
		f.owned[n] = true
	}
	for i, n := range sig.Params {
		f.owned[n] = true
		f.vars[n] = args[i]
	}

	m.record(Effect{Kind: EffectCall, Name: c.Func, Argc: c.Argc})
	m.frame = f
	m.depth++
	m.PC = entry + 1
	return nil
}

// ret leaves the current function, or halts at top level. A call whose
// destination is a named variable must get a value back.
func (m *VM) ret(v tac.Value, hasValue bool) error {
	m.record(Effect{Kind: EffectReturn, Scope: m.frame.fn, Value: v, HasValue: hasValue})
	if m.frame.caller == nil {
		if hasValue {
			m.result = &v
		}
		m.Halted = true
		return nil
	}
	f := m.frame
	m.frame = f.caller
	m.depth--
	m.PC = f.ret
	if hasValue {
		m.store(f.dest, v)
		return nil
	}
	if f.dest.IsName() {
		return fmt.Errorf("%w: %s returned no value for %s", ErrUnset, f.fn, f.dest.Text)
	}
	return nil
}

// Step executes one instruction.
func (m *VM) Step() error {
	if m.Halted {
		return nil
	}
	if m.PC >= len(m.code) {
		if m.frame.caller == nil {
			m.Halted = true
			return nil
		}
		if err := m.ret(tac.Value{}, false); err != nil {
			m.Halted = true
			return fmt.Errorf("end of code: %w", err)
		}
		return nil
	}
	if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
		return ErrStepLimit
	}
	m.Steps++

	pc := m.PC
	in := m.code[pc]
	if err := m.exec(in); err != nil {
		m.Halted = true
		return fmt.Errorf("instruction %d (%s): %w", pc, in, err)
	}
	return nil
}

func (m *VM) exec(in tac.Instruction) error {
	switch n := in.(type) {
	case tac.Label:
		if n.Entry {
			// Falling into another function's body.
			if m.frame.caller == nil {
				m.Halted = true
				return nil
			}
			return m.ret(tac.Value{}, false)
		}
		m.PC++

	case tac.Assign:
		v, err := m.value(n.Src)
		if err != nil {
			return err
		}
		m.store(n.Dest, v)
		m.PC++

	case tac.BinaryOp:
		l, err := m.value(n.Left)
		if err != nil {
			return err
		}
		r, err := m.value(n.Right)
		if err != nil {
			return err
		}
		v, err := tac.EvalBinary(n.Op, l, r)
		if err != nil {
			return err
		}
		m.store(n.Dest, v)
		m.PC++

	case tac.UnaryOp:
		x, err := m.value(n.X)
		if err != nil {
			return err
		}
		v, err := tac.EvalUnary(n.Op, x)
		if err != nil {
			return err
		}
		m.store(n.Dest, v)
		m.PC++

	case tac.Goto:
		return m.jump(n.Label)

	case tac.IfFalseGoto:
		c, err := m.value(n.Cond)
		if err != nil {
			return err
		}
		if c.Truthy() {
			m.PC++
			return nil
		}
		return m.jump(n.Label)

	case tac.Param:
		v, err := m.value(n.Value)
		if err != nil {
			return err
		}
		m.pending = append(m.pending, v)
		m.record(Effect{Kind: EffectParam, Value: v})
		m.PC++

	case tac.Call:
		return m.call(n)

	case tac.Return:
		if !n.HasValue {
			return m.ret(tac.Value{}, false)
		}
		v, err := m.value(n.Value)
		if err != nil {
			return err
		}
		return m.ret(v, true)

	default:
		panic(fmt.Sprintf("vm: unknown instruction %T", in))
	}
	return nil
}

// Run steps until the program halts or fails.
func (m *VM) Run() error {
	for !m.Halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs code to completion and returns its trace. The trace is
// returned even when the run fails.
func Execute(code []tac.Instruction, opts ...Option) ([]Effect, error) {
	m, err := New(code, opts...)
	if err != nil {
		return nil, err
	}
	err = m.Run()
	return m.Trace(), err
}
