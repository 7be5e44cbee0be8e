package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"milang/pkg/compiler"
	"milang/pkg/config"
	"milang/pkg/tac"
)

const squareSource = `int sq(int n) {
    return n * n;
}

int main() {
    int r;
    r = sq(14);
    return r;
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCompileWritesListings(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "square.txt", squareSource)

	code, stdout, stderr := runCLI(t, "-in", src, "-no-color")
	if code != 0 {
		t.Fatalf("exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	res, err := compiler.Compile(squareSource)
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, "square_intermediate.txt")); got != tac.Format(res.Raw) {
		t.Errorf("intermediate listing mismatch:\n%s", got)
	}
	if got := readFile(t, filepath.Join(dir, "square_optimized.txt")); got != tac.Format(res.Optimized) {
		t.Errorf("optimized listing mismatch:\n%s", got)
	}
	for _, want := range []string{"== compile ", "ok: semantic analysis passed", "square_optimized.txt"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestCompileAndRun(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "square.txt", squareSource)
	out := filepath.Join(dir, "build")
	tree := filepath.Join(dir, "tree.png")

	code, stdout, stderr := runCLI(t, "-in", src, "-out-dir", out, "-run", "-list", "-tree", tree, "-no-color")
	if code != 0 {
		t.Fatalf("exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	for _, want := range []string{"call sq, 1", "return 196 from sq", "assign main.r = 196", "run complete", "Optimized code"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "square_optimized.txt")); err != nil {
		t.Errorf("optimized listing not in -out-dir: %v", err)
	}
	if !strings.HasPrefix(readFile(t, tree), "\x89PNG") {
		t.Error("tree file is not a PNG")
	}
}

func TestOptimizeListing(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "prog.tac", "t0 = 1 + 2\nx = t0\n")

	code, stdout, stderr := runCLI(t, "-opt", in, "-no-color", "-run")
	if code != 0 {
		t.Fatalf("exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	if got := readFile(t, filepath.Join(dir, "prog_optimized.txt")); got != "x = 3\n" {
		t.Errorf("optimized listing = %q", got)
	}
	if !strings.Contains(stdout, "assign global.x = 3") {
		t.Errorf("stdout missing the run trace:\n%s", stdout)
	}
}

func TestConfigFileAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "p.txt", "x = 1 + 2;\n")
	cfgPath := writeFile(t, dir, "milang.yaml", "passes: []\nout_dir: "+filepath.Join(dir, "cfg-out")+"\noptimized_suffix: .opt\n")
	flagOut := filepath.Join(dir, "flag-out")

	code, stdout, stderr := runCLI(t, "-in", src, "-config", cfgPath, "-out-dir", flagOut, "-no-color")
	if code != 0 {
		t.Fatalf("exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	raw := readFile(t, filepath.Join(flagOut, "p_intermediate.txt"))
	if got := readFile(t, filepath.Join(flagOut, "p.opt")); got != raw {
		t.Errorf("with no passes the optimized listing should equal the raw one\nraw:\n%s\noptimized:\n%s", raw, got)
	}
	if _, err := os.Stat(filepath.Join(dir, "cfg-out")); !os.IsNotExist(err) {
		t.Errorf("config out_dir should be overridden by -out-dir, stat err = %v", err)
	}
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "starter.yaml")
	code, _, stderr := runCLI(t, "-write-config", path, "-list", "-no-color")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.List || cfg.Color {
		t.Errorf("flags not reflected in the written config: %+v", cfg)
	}
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.txt", "int x\nx = 1;\n")
	undeclared := writeFile(t, dir, "undeclared.txt", "y = 1;\n")
	badCfg := writeFile(t, dir, "bad.yaml", "passes: [nope]\n")

	tests := []struct {
		name   string
		args   []string
		code   int
		stdout string
		stderr string
	}{
		{"nothing to do", nil, 2, "", "nothing to do"},
		{"both inputs", []string{"-in", bad, "-opt", bad}, 2, "", "either -in or -opt"},
		{"unknown flag", []string{"-bogus"}, 2, "", "flag provided but not defined"},
		{"bad config", []string{"-in", bad, "-config", badCfg}, 2, "", "invalid configuration"},
		{"missing input", []string{"-in", filepath.Join(dir, "none.txt"), "-no-color"}, 1, "failed to read input file", ""},
		{"missing listing", []string{"-opt", filepath.Join(dir, "none.tac"), "-no-color"}, 1, "failed to read source file", ""},
		{"syntax error", []string{"-in", bad, "-no-color"}, 1, "error: ", ""},
		{"semantic error", []string{"-in", undeclared, "-no-color"}, 1, "error: ", ""},
		{"malformed listing", []string{"-opt", bad, "-no-color"}, 1, "error: ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != tt.code {
				t.Errorf("exit code %d, want %d\nstdout:\n%s\nstderr:\n%s", code, tt.code, stdout, stderr)
			}
			if !strings.Contains(stdout, tt.stdout) {
				t.Errorf("stdout missing %q:\n%s", tt.stdout, stdout)
			}
			if !strings.Contains(stderr, tt.stderr) {
				t.Errorf("stderr missing %q:\n%s", tt.stderr, stderr)
			}
		})
	}
}

func TestOptimizeListingIntoNewOutDir(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "prog.tac", "t0 = 2 * 4\ny = t0\n")
	out := filepath.Join(dir, "listings", "opt")

	code, stdout, stderr := runCLI(t, "-opt", in, "-out-dir", out, "-no-color")
	if code != 0 {
		t.Fatalf("exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	if got := readFile(t, filepath.Join(out, "prog_optimized.txt")); got != "y = 8\n" {
		t.Errorf("optimized listing = %q", got)
	}
}

func TestRunStoppedAtFunctionEntry(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "late.txt", "int f(int p) { return p; }\nint x;\nx = f(2);\nreturn x;\n")

	code, stdout, stderr := runCLI(t, "-in", src, "-out-dir", filepath.Join(dir, "build"), "-run", "-no-color")
	if code != 0 {
		t.Fatalf("exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	for _, want := range []string{"after function f (line 1) never runs", "warning: run stopped at func_f"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}
