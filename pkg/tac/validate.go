package tac

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants every sequence must keep, before
// and after optimization: each label is defined at most once, every jump
// target is defined, and each temporary has at most one definition.
// All violations are reported together.
func Validate(code []Instruction) error {
	var errs []error

	labels := make(map[string]int)
	for i, in := range code {
		l, ok := in.(Label)
		if !ok {
			continue
		}
		if prev, dup := labels[l.Name]; dup {
			errs = append(errs, fmt.Errorf("label %s defined at %d and %d", l.Name, prev, i))
			continue
		}
		labels[l.Name] = i
	}

	temps := make(map[string]int)
	for i, in := range code {
		if target, ok := JumpTarget(in); ok {
			if _, defined := labels[target]; !defined {
				errs = append(errs, fmt.Errorf("instruction %d (%s) jumps to undefined label %s", i, in, target))
			}
		}
		if d, ok := in.Def(); ok && d.IsTemp() {
			if prev, dup := temps[d.Text]; dup {
				errs = append(errs, fmt.Errorf("temporary %s defined at %d and %d", d.Text, prev, i))
				continue
			}
			temps[d.Text] = i
		}
	}

	return errors.Join(errs...)
}
