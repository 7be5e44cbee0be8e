// Package optimize rewrites a finished three-address-code sequence into an
// equivalent one that is never longer. Passes are local (single instructions,
// adjacent pairs, or straight-line runs) and are repeated until none of them
// changes the code, so Run(Run(c)) == Run(c).
package optimize

import (
	"fmt"
	"log/slog"
	"strings"

	"milang/pkg/tac"
)

// Pass names one rewrite.
type Pass string

const (
	Fold        Pass = "fold"
	Branches    Pass = "branches"
	CopyProp    Pass = "copyprop"
	Coalesce    Pass = "coalesce"
	DCE         Pass = "dce"
	Jumps       Pass = "jumps"
	Unreachable Pass = "unreachable"
	Labels      Pass = "labels"
)

// DefaultPasses is the full pass list in the order each round applies it.
var DefaultPasses = []Pass{Fold, Branches, CopyProp, Coalesce, DCE, Jumps, Unreachable, Labels}

type passFunc func([]tac.Instruction) ([]tac.Instruction, bool)

var passFuncs = map[Pass]passFunc{
	Fold:        fold,
	Branches:    simplifyBranches,
	CopyProp:    propagateCopies,
	Coalesce:    coalesce,
	DCE:         eliminateDead,
	Jumps:       removeRedundantJumps,
	Unreachable: removeUnreachable,
	Labels:      removeUnusedLabels,
}

// ParsePasses resolves pass names such as those read from a config file.
func ParsePasses(names []string) ([]Pass, error) {
	passes := make([]Pass, 0, len(names))
	for _, n := range names {
		p := Pass(strings.ToLower(strings.TrimSpace(n)))
		if _, ok := passFuncs[p]; !ok {
			return nil, fmt.Errorf("unknown optimizer pass %q", n)
		}
		passes = append(passes, p)
	}
	return passes, nil
}

// Stats summarises one Run.
type Stats struct {
	Rounds  int          // full rounds, including the final one that changed nothing
	Before  int          // input length
	After   int          // output length
	Applied map[Pass]int // rounds in which each pass changed the code
}

type Optimizer struct {
	passes []Pass
	log    *slog.Logger
	stats  Stats
}

type Option func(*Optimizer)

// WithPasses restricts the optimizer to the given passes, applied in the
// given order. An empty list disables optimization.
func WithPasses(passes ...Pass) Option {
	return func(o *Optimizer) {
		o.passes = append([]Pass(nil), passes...)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) { o.log = l }
}

func New(opts ...Option) *Optimizer {
	o := &Optimizer{passes: DefaultPasses, log: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Passes returns the configured pass order.
func (o *Optimizer) Passes() []Pass {
	return append([]Pass(nil), o.passes...)
}

// Stats reports on the most recent Run.
func (o *Optimizer) Stats() Stats { return o.stats }

// Run returns an optimized copy of code. The input slice is not modified.
func (o *Optimizer) Run(code []tac.Instruction) []tac.Instruction {
	out := make([]tac.Instruction, len(code))
	copy(out, code)

	o.stats = Stats{Before: len(code), Applied: make(map[Pass]int)}
	for {
		o.stats.Rounds++
		changed := false
		for _, p := range o.passes {
			fn, ok := passFuncs[p]
			if !ok {
				panic(fmt.Sprintf("optimize: unknown pass %q", p))
			}
			before := len(out)
			next, c := fn(out)
			if !c {
				continue
			}
			if len(next) > before {
				panic(fmt.Sprintf("optimize: pass %s grew the code from %d to %d instructions", p, before, len(next)))
			}
			o.log.Debug("optimizer pass applied", "pass", string(p), "round", o.stats.Rounds, "before", before, "after", len(next))
			o.stats.Applied[p]++
			out, changed = next, true
		}
		if !changed {
			break
		}
	}
	o.stats.After = len(out)
	return out
}

// Optimize runs every pass with default settings.
func Optimize(code []tac.Instruction) []tac.Instruction {
	return New().Run(code)
}
