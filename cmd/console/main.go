// Command console compiles a source file and runs the optimized code in the
// interpreter, printing the effects of the run.
package main

import (
	"errors"
	"log"
	"os"

	"github.com/tebeka/atexit"

	"milang/pkg/compiler"
	"milang/pkg/report"
	"milang/pkg/utils"
	"milang/pkg/vm"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: console <source file> [--show-tac] [--raw]")
	}
	showTac := false
	useRaw := false
	for _, arg := range os.Args[2:] {
		switch arg {
		case "--show-tac":
			showTac = true
		case "--raw":
			useRaw = true
		}
	}

	file, err := utils.ReadSource(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	rep := report.New(os.Stdout, true)
	rep.Stage("compile " + file.Path)

	res, err := compiler.Compile(file.Text)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			rep.CompileError(ce)
			atexit.Exit(1)
		}
		log.Fatalf("Compilation failed: %v", err)
	}
	rep.Diagnostics(res.Diagnostics)

	code := res.Optimized
	if useRaw {
		code = res.Raw
	}
	if showTac {
		rep.Listing(file.Base, code)
	}

	rep.Stage("run")
	m, err := vm.New(code, append(res.RunOptions(), vm.WithOutput(os.Stdout))...)
	if err != nil {
		log.Fatalf("Loading failed: %v", err)
	}
	if err := m.Run(); err != nil {
		rep.Error("%v", err)
		atexit.Exit(1)
	}

	if v, ok := m.Result(); ok {
		rep.Success("halted after %d steps at PC=%d, result %s", m.Steps, m.PC, v)
	} else {
		rep.Success("halted after %d steps at PC=%d", m.Steps, m.PC)
	}
	printGlobals(rep, res, m)
	atexit.Exit(0)
}

// printGlobals lists the final value of every global variable the run set.
func printGlobals(rep *report.Reporter, res *compiler.Result, m *vm.VM) {
	for _, sym := range res.Symbols.Symbols(compiler.GlobalScope) {
		if sym.Kind != compiler.SymVariable {
			continue
		}
		if v, ok := m.Global(sym.Name); ok {
			rep.Success("%s = %s", sym.Name, v)
		}
	}
}
