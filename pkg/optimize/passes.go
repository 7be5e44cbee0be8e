package optimize

import (
	"math"

	"milang/pkg/tac"
)

// numeric returns the value of a number literal. Character literals are not
// numbers here, so folding never turns 'a' + 1 into an integer.
func numeric(o tac.Operand) (tac.Value, bool) {
	if !o.IsLiteral() {
		return tac.Value{}, false
	}
	return tac.ParseNumber(o.Text)
}

// literalValue is numeric plus character literals, for truth tests.
func literalValue(o tac.Operand) (tac.Value, bool) {
	if v, ok := numeric(o); ok {
		return v, true
	}
	if o.IsLiteral() {
		return tac.ParseChar(o.Text)
	}
	return tac.Value{}, false
}

func foldable(v tac.Value) bool {
	return !v.Float || (!math.IsInf(v.F, 0) && !math.IsNaN(v.F))
}

// counts returns, per temporary name, how many instructions define it and how
// many operand slots read it.
func counts(code []tac.Instruction) (defs, uses map[string]int) {
	defs = make(map[string]int)
	uses = make(map[string]int)
	for _, in := range code {
		if d, ok := in.Def(); ok && d.IsTemp() {
			defs[d.Text]++
		}
		for _, u := range in.Uses() {
			if u.IsTemp() {
				uses[u.Text]++
			}
		}
	}
	return defs, uses
}

// fold evaluates operations whose operands are all number literals.
//
//	t0 = 1 + 2   =>   t0 = 3
func fold(code []tac.Instruction) ([]tac.Instruction, bool) {
	changed := false
	out := make([]tac.Instruction, len(code))
	for i, in := range code {
		out[i] = in
		switch n := in.(type) {
		case tac.BinaryOp:
			l, ok1 := numeric(n.Left)
			r, ok2 := numeric(n.Right)
			if !ok1 || !ok2 {
				continue
			}
			v, err := tac.EvalBinary(n.Op, l, r)
			if err != nil || !foldable(v) {
				continue
			}
			out[i] = tac.Assign{Dest: n.Dest, Src: tac.Lit(v.String())}
			changed = true
		case tac.UnaryOp:
			x, ok := numeric(n.X)
			if !ok {
				continue
			}
			v, err := tac.EvalUnary(n.Op, x)
			if err != nil {
				continue
			}
			out[i] = tac.Assign{Dest: n.Dest, Src: tac.Lit(v.String())}
			changed = true
		}
	}
	return out, changed
}

// labelsAhead reports whether label appears among the labels that directly
// follow position i, before any other instruction.
func labelsAhead(code []tac.Instruction, i int, label string) bool {
	for j := i + 1; j < len(code); j++ {
		l, ok := code[j].(tac.Label)
		if !ok {
			return false
		}
		if l.Name == label {
			return true
		}
	}
	return false
}

// simplifyBranches resolves conditional jumps on literals and drops
// conditional jumps to the very next position.
//
//	if !1 goto L0   =>   (removed)
//	if !0 goto L0   =>   goto L0
//	if !t goto L0; L0:   =>   L0:
func simplifyBranches(code []tac.Instruction) ([]tac.Instruction, bool) {
	changed := false
	out := make([]tac.Instruction, 0, len(code))
	for i, in := range code {
		br, ok := in.(tac.IfFalseGoto)
		if !ok {
			out = append(out, in)
			continue
		}
		if v, ok := literalValue(br.Cond); ok {
			changed = true
			if !v.Truthy() {
				out = append(out, tac.Goto{Label: br.Label})
			}
			continue
		}
		if labelsAhead(code, i, br.Label) {
			changed = true
			continue
		}
		out = append(out, in)
	}
	return out, changed
}

// propagateCopies replaces reads of a temporary defined as a plain copy.
//
// A temporary copied from a literal or another single-definition temporary
// holds that value everywhere, so every read is replaced. A temporary copied
// from a named variable is replaced only further down the same straight-line
// run, up to a label, a reassignment of the name, a call, or a jump.
func propagateCopies(code []tac.Instruction) ([]tac.Instruction, bool) {
	defs, _ := counts(code)

	direct := make(map[string]tac.Operand)
	for _, in := range code {
		a, ok := in.(tac.Assign)
		if !ok || !a.Dest.IsTemp() || defs[a.Dest.Text] != 1 || a.Src == a.Dest {
			continue
		}
		if a.Src.IsLiteral() || (a.Src.IsTemp() && defs[a.Src.Text] == 1) {
			direct[a.Dest.Text] = a.Src
		}
	}

	// Follow chains t2 -> t1 -> 5; a cycle resolves to nothing.
	resolved := make(map[string]tac.Operand, len(direct))
	for t := range direct {
		seen := map[string]bool{t: true}
		src := direct[t]
		for src.IsTemp() {
			next, ok := direct[src.Text]
			if !ok {
				break
			}
			if seen[src.Text] {
				src = tac.Operand{}
				break
			}
			seen[src.Text] = true
			src = next
		}
		if src != (tac.Operand{}) {
			resolved[t] = src
		}
	}

	changed := false
	out := make([]tac.Instruction, len(code))
	for i, in := range code {
		out[i] = tac.MapUses(in, func(o tac.Operand) tac.Operand {
			if o.IsTemp() {
				if src, ok := resolved[o.Text]; ok {
					changed = true
					return src
				}
			}
			return o
		})
	}

	for i, in := range out {
		a, ok := in.(tac.Assign)
		if !ok || !a.Dest.IsTemp() || !a.Src.IsName() || defs[a.Dest.Text] != 1 {
			continue
		}
		if propagateName(out, i, a.Dest, a.Src) {
			changed = true
		}
	}
	return out, changed
}

// propagateName rewrites reads of temp to name after position i while name
// provably still holds the copied value.
func propagateName(code []tac.Instruction, i int, temp, name tac.Operand) bool {
	changed := false
	for j := i + 1; j < len(code); j++ {
		if _, ok := code[j].(tac.Label); ok {
			return changed
		}
		code[j] = tac.MapUses(code[j], func(o tac.Operand) tac.Operand {
			if o == temp {
				changed = true
				return name
			}
			return o
		})
		switch n := code[j].(type) {
		case tac.Call, tac.Goto, tac.Return:
			return changed
		default:
			if d, ok := n.Def(); ok && d == name {
				return changed
			}
		}
	}
	return changed
}

// coalesce merges a computation into the copy that immediately consumes it.
//
//	t0 = a + b; x = t0   =>   x = a + b
//	t1 = call f, 0; x = t1   =>   x = call f, 0
func coalesce(code []tac.Instruction) ([]tac.Instruction, bool) {
	defs, uses := counts(code)
	changed := false
	out := make([]tac.Instruction, 0, len(code))
	for i := 0; i < len(code); i++ {
		in := code[i]
		d, ok := in.Def()
		if ok && d.IsTemp() && defs[d.Text] == 1 && uses[d.Text] == 1 && i+1 < len(code) {
			if next, isAssign := code[i+1].(tac.Assign); isAssign && next.Src == d {
				out = append(out, tac.WithDef(in, next.Dest))
				i++
				changed = true
				continue
			}
		}
		out = append(out, in)
	}
	return out, changed
}

// callResults returns the temporaries defined by calls. A callee may end
// without a value, leaving its result unset.
func callResults(code []tac.Instruction) map[string]bool {
	results := make(map[string]bool)
	for _, in := range code {
		if c, ok := in.(tac.Call); ok && c.Dest.IsTemp() {
			results[c.Dest.Text] = true
		}
	}
	return results
}

// mayFault reports whether evaluating in can stop the program: a division
// or remainder whose divisor is not a nonzero number literal, or a read of a
// value that may be unset (a named variable or a call result).
func mayFault(in tac.Instruction, callResults map[string]bool) bool {
	for _, u := range in.Uses() {
		if u.IsName() || (u.IsTemp() && callResults[u.Text]) {
			return true
		}
	}
	b, ok := in.(tac.BinaryOp)
	if !ok || (b.Op != "/" && b.Op != "%") {
		return false
	}
	v, ok := literalValue(b.Right)
	return !ok || !v.Truthy()
}

// eliminateDead drops definitions of temporaries nobody reads. Calls are kept
// because the callee may have effects; named assignments are effects.
func eliminateDead(code []tac.Instruction) ([]tac.Instruction, bool) {
	_, uses := counts(code)
	results := callResults(code)
	changed := false
	out := make([]tac.Instruction, 0, len(code))
	for _, in := range code {
		if _, isCall := in.(tac.Call); !isCall && !mayFault(in, results) {
			if d, ok := in.Def(); ok && d.IsTemp() && uses[d.Text] == 0 {
				changed = true
				continue
			}
		}
		out = append(out, in)
	}
	return out, changed
}

// removeRedundantJumps drops a goto whose target label directly follows it.
func removeRedundantJumps(code []tac.Instruction) ([]tac.Instruction, bool) {
	changed := false
	out := make([]tac.Instruction, 0, len(code))
	for i, in := range code {
		if g, ok := in.(tac.Goto); ok && labelsAhead(code, i, g.Label) {
			changed = true
			continue
		}
		out = append(out, in)
	}
	return out, changed
}

// removeUnreachable drops everything between an unconditional transfer
// (goto, return) and the next label.
func removeUnreachable(code []tac.Instruction) ([]tac.Instruction, bool) {
	changed := false
	out := make([]tac.Instruction, 0, len(code))
	dead := false
	for _, in := range code {
		if _, isLabel := in.(tac.Label); isLabel {
			dead = false
		}
		if dead {
			changed = true
			continue
		}
		out = append(out, in)
		switch in.(type) {
		case tac.Goto, tac.Return:
			dead = true
		}
	}
	return out, changed
}

// removeUnusedLabels drops jump labels nothing jumps to. Function entry
// labels are call targets and always stay.
func removeUnusedLabels(code []tac.Instruction) ([]tac.Instruction, bool) {
	referenced := make(map[string]bool)
	for _, in := range code {
		if target, ok := tac.JumpTarget(in); ok {
			referenced[target] = true
		}
	}
	changed := false
	out := make([]tac.Instruction, 0, len(code))
	for _, in := range code {
		if l, ok := in.(tac.Label); ok && !l.Entry && !referenced[l.Name] {
			changed = true
			continue
		}
		out = append(out, in)
	}
	return out, changed
}
