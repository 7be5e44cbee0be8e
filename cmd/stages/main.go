// Command stages prints what every compiler stage produces for one source
// file: tokens, syntax tree, symbol table, raw and optimized code.
package main

import (
	"fmt"
	"os"

	"milang/pkg/compiler"
	"milang/pkg/optimize"
	"milang/pkg/tac"
	"milang/pkg/treeimg"
	"milang/pkg/utils"
)

const testSource = `int x;
x = 10;
if (x > 5) { x = x * 2; }
return x;
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		file, err := utils.ReadSource(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = file.Text
	}

	fmt.Printf("Source:\n%s\n", src)

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	// Parse
	prog, err := compiler.Parse(tokens, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Println("Syntax tree")
	fmt.Print(treeimg.FromProgram(prog))
	fmt.Println()

	// Check
	syms, diags := compiler.Check(prog)
	for _, d := range diags {
		fmt.Println(" ", d)
	}
	if diags.HasErrors() {
		os.Exit(1)
	}
	fmt.Print(syms)
	fmt.Println()

	// Lower and optimize
	raw := compiler.Lower(prog, syms)
	fmt.Println("Intermediate code")
	fmt.Print(tac.Format(raw))
	fmt.Println()

	opt := optimize.New()
	optimized := opt.Run(raw)
	stats := opt.Stats()
	fmt.Printf("Optimized code (%d -> %d instructions, %d rounds)\n", stats.Before, stats.After, stats.Rounds)
	fmt.Print(tac.Format(optimized))
}
