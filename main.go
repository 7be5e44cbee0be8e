//go:build !js

// Command milang compiles a source file to three-address code and writes the
// raw and optimized listings next to it.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tebeka/atexit"

	"milang/pkg/compiler"
	"milang/pkg/config"
	"milang/pkg/optimize"
	"milang/pkg/report"
	"milang/pkg/tac"
	"milang/pkg/treeimg"
	"milang/pkg/utils"
	"milang/pkg/vm"
)

type options struct {
	in          string
	opt         string
	configPath  string
	writeConfig string
	outDir      string
	tree        string
	list        bool
	run         bool
	noColor     bool
	verbose     bool
	set         map[string]bool // flags given on the command line
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("milang", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "input source file")
	fs.StringVar(&o.opt, "opt", "", "re-optimize an existing three-address code listing")
	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.StringVar(&o.writeConfig, "write-config", "", "write the effective config to this file and exit")
	fs.StringVar(&o.outDir, "out-dir", "", "directory for the output listings (default: next to the input)")
	fs.StringVar(&o.tree, "tree", "", "write the syntax tree as a PNG image")
	fs.BoolVar(&o.list, "list", false, "print the instruction listings")
	fs.BoolVar(&o.run, "run", false, "run the optimized code in the interpreter")
	fs.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&o.verbose, "v", false, "log every pipeline stage")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// settings loads the config file, if any, and lets explicit flags override it.
func (o options) settings() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if o.set["out-dir"] {
		cfg.OutDir = o.outDir
	}
	if o.set["tree"] {
		cfg.Tree = o.tree
	}
	if o.set["list"] {
		cfg.List = o.list
	}
	if o.set["run"] {
		cfg.Run = o.run
	}
	if o.set["no-color"] {
		cfg.Color = !o.noColor
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run is the whole command; it returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	cfg, err := o.settings()
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}
	rep := report.New(stdout, cfg.Color)
	log := newLogger(stderr, o.verbose)

	if o.writeConfig != "" {
		data, err := cfg.Marshal()
		if err == nil {
			err = os.WriteFile(o.writeConfig, data, 0o644)
		}
		if err != nil {
			rep.Error("writing config: %v", err)
			return 1
		}
		rep.Success("config written to %s", o.writeConfig)
		return 0
	}

	switch {
	case o.in != "" && o.opt != "":
		fmt.Fprintln(stderr, "use either -in or -opt, not both")
		return 2
	case o.in != "":
		err = compileFile(o.in, cfg, rep, log)
	case o.opt != "":
		err = optimizeFile(o.opt, cfg, rep, log)
	default:
		fmt.Fprintln(stderr, "nothing to do: provide -in to compile a source file or -opt to optimize a listing")
		return 2
	}
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			rep.CompileError(ce)
		} else {
			rep.Error("%v", err)
		}
		return 1
	}
	return 0
}

func newOptimizer(cfg config.Config, log *slog.Logger) (*optimize.Optimizer, error) {
	passes, err := cfg.OptimizerPasses()
	if err != nil {
		return nil, err
	}
	return optimize.New(optimize.WithPasses(passes...), optimize.WithLogger(log)), nil
}

func compileFile(path string, cfg config.Config, rep *report.Reporter, log *slog.Logger) error {
	source, err := utils.ReadSource(path)
	if err != nil {
		return fmt.Errorf("failed to read input file %q: %w", path, err)
	}
	opt, err := newOptimizer(cfg, log)
	if err != nil {
		return err
	}

	rep.Stage("compile " + path)
	res, err := compiler.Compile(source.Text, compiler.WithOptimizer(opt), compiler.WithLogger(log))
	if err != nil {
		return err
	}
	rep.Success("lexical analysis: %d tokens", len(res.Tokens))
	rep.Success("syntax analysis: %d top-level statements", len(res.Program.Stmts))
	rep.Success("semantic analysis passed")
	rep.Diagnostics(res.Diagnostics)

	if cfg.List {
		rep.Symbols(res.Symbols)
		rep.Listing("Intermediate code", res.Raw)
		rep.Listing("Optimized code", res.Optimized)
	}
	rep.Stats(res.Stats)

	if err := writeListings(path, cfg, res.Raw, res.Optimized, rep); err != nil {
		return err
	}

	if cfg.Tree != "" {
		tree := treeimg.FromProgram(res.Program)
		if err := treeimg.WritePNG(cfg.Tree, tree, treeimg.Options{Scale: cfg.TreeScale}); err != nil {
			return fmt.Errorf("failed to write tree image %q: %w", cfg.Tree, err)
		}
		rep.Success("syntax tree (%d nodes) -> %s", tree.Count(), cfg.Tree)
	}

	if cfg.Run {
		return execute(res.Optimized, cfg, rep, res.RunOptions()...)
	}
	return nil
}

// optimizeFile reads a listing in the canonical text form, optimizes it and
// writes the result with the optimized suffix.
func optimizeFile(path string, cfg config.Config, rep *report.Reporter, log *slog.Logger) error {
	listing, err := utils.ReadSource(path)
	if err != nil {
		return fmt.Errorf("failed to read listing %q: %w", path, err)
	}
	code, err := tac.Parse(listing.Text)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tac.Validate(code); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	opt, err := newOptimizer(cfg, log)
	if err != nil {
		return err
	}

	rep.Stage("optimize " + path)
	optimized := opt.Run(code)
	if cfg.List {
		rep.Listing("Input code", code)
		rep.Listing("Optimized code", optimized)
	}
	rep.Stats(opt.Stats())

	_, out := cfg.OutputPaths(path)
	if err := writeListing(out, optimized, "optimized code", cfg, rep); err != nil {
		return err
	}

	if cfg.Run {
		return execute(optimized, cfg, rep)
	}
	return nil
}

func writeListings(input string, cfg config.Config, raw, optimized []tac.Instruction, rep *report.Reporter) error {
	rawPath, optPath := cfg.OutputPaths(input)
	if err := writeListing(rawPath, raw, "intermediate code", cfg, rep); err != nil {
		return err
	}
	return writeListing(optPath, optimized, "optimized code", cfg, rep)
}

// writeListing writes code one instruction per line, creating the configured
// output directory first.
func writeListing(path string, code []tac.Instruction, what string, cfg config.Config, rep *report.Reporter) error {
	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(tac.Format(code)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s file %q: %w", what, path, err)
	}
	rep.Success("%s (%d instructions) -> %s", what, len(code), path)
	return nil
}

func execute(code []tac.Instruction, cfg config.Config, rep *report.Reporter, opts ...vm.Option) error {
	rep.Stage("run")
	m, err := vm.New(code, append(opts, vm.WithMaxSteps(cfg.MaxSteps))...)
	if err != nil {
		return err
	}
	runErr := m.Run()
	rep.Trace(m.Trace())
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	if m.PC < len(code) {
		if l, ok := code[m.PC].(tac.Label); ok && l.Entry {
			rep.Warning("run stopped at %s: top-level code ends at the first function entry", l.Name)
		}
	}
	if v, ok := m.Result(); ok {
		rep.Success("run complete in %d steps, result %s", m.Steps, v)
	} else {
		rep.Success("run complete in %d steps", m.Steps)
	}
	return nil
}

func main() {
	out := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { out.Flush() })
	atexit.Exit(run(os.Args[1:], out, os.Stderr))
}
