package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"milang/pkg/optimize"
	"milang/pkg/tac"
	"milang/pkg/vm"
)

// Result holds every intermediate product of a successful compilation.
type Result struct {
	Tokens      []Token
	Program     *Program
	Symbols     *SymbolTable
	Diagnostics Diagnostics // warnings only; errors abort Compile
	Raw         []tac.Instruction
	Optimized   []tac.Instruction
	Stats       optimize.Stats
}

type config struct {
	opt *optimize.Optimizer
	log *slog.Logger
}

type Option func(*config)

// WithOptimizer replaces the default optimizer, for example to run a subset
// of passes.
func WithOptimizer(o *optimize.Optimizer) Option {
	return func(c *config) { c.opt = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// Compile runs the whole pipeline: lex, parse, check, lower, optimize.
//
// A program rejected by the front end yields a *CompileError. Code that fails
// validation after lowering or optimizing is a compiler defect and panics.
func Compile(src string, opts ...Option) (*Result, error) {
	cfg := config{log: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.opt == nil {
		cfg.opt = optimize.New(optimize.WithLogger(cfg.log))
	}
	log := cfg.log

	tokens, err := Lex(src)
	if err != nil {
		return nil, frontEndError(StageLexical, err)
	}
	log.Debug("lexed", "tokens", len(tokens))

	prog, err := Parse(tokens, src)
	if err != nil {
		return nil, frontEndError(StageSyntactic, err)
	}
	log.Debug("parsed", "statements", len(prog.Stmts))

	syms, diags := Check(prog)
	if diags.HasErrors() {
		return nil, &CompileError{Stage: StageSemantic, Diags: diags}
	}
	for _, d := range diags {
		log.Debug("semantic warning", "line", d.Line, "msg", d.Msg)
	}

	raw := Lower(prog, syms)
	mustValidate("lowered", raw)
	log.Debug("lowered", "instructions", len(raw))

	optimized := cfg.opt.Run(raw)
	mustValidate("optimized", optimized)
	stats := cfg.opt.Stats()
	log.Debug("optimized", "before", stats.Before, "after", stats.After, "rounds", stats.Rounds)

	return &Result{
		Tokens:      tokens,
		Program:     prog,
		Symbols:     syms,
		Diagnostics: diags,
		Raw:         raw,
		Optimized:   optimized,
		Stats:       stats,
	}, nil
}

func frontEndError(stage Stage, err error) error {
	var se *SourceError
	if errors.As(err, &se) {
		return &CompileError{Stage: se.Stage, Diags: Diagnostics{se.Diagnostic()}, Err: err}
	}
	return &CompileError{Stage: stage, Err: err}
}

func mustValidate(what string, code []tac.Instruction) {
	if err := tac.Validate(code); err != nil {
		panic(fmt.Sprintf("compiler: %s code is malformed: %v", what, err))
	}
}

// Signatures returns the parameter and local names of every function, in the
// shape the interpreter binds frames with.
func Signatures(syms *SymbolTable) map[string]vm.Signature {
	sigs := make(map[string]vm.Signature)
	for _, sym := range syms.Symbols(GlobalScope) {
		if sym.Kind != SymFunction || !syms.HasScope(sym.Name) {
			continue
		}
		params, locals := syms.Names(sym.Name)
		sigs[sym.Name] = vm.Signature{Params: params, Locals: locals}
	}
	return sigs
}

// RunOptions returns interpreter options for a compiled program: its
// signatures, and an entry call to main when the program defines one.
func (r *Result) RunOptions() []vm.Option {
	opts := []vm.Option{vm.WithSignatures(Signatures(r.Symbols))}
	if sym, ok := r.Symbols.LookupIn(GlobalScope, "main"); ok && sym.Kind == SymFunction {
		opts = append(opts, vm.WithEntry("main"))
	}
	return opts
}
