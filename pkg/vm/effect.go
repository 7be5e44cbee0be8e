package vm

import (
	"fmt"

	"milang/pkg/tac"
)

type EffectKind int

const (
	EffectAssign EffectKind = iota // a named variable was written
	EffectParam                    // an argument was pushed
	EffectCall                     // control entered a function
	EffectReturn                   // a function or the program returned
)

// Effect is one externally visible event of a run. Temporaries never appear
// in effects, so two sequences that differ only in temporaries produce the
// same trace.
type Effect struct {
	Kind     EffectKind
	Scope    string    // scope owning the variable (assign) or returning function (return)
	Name     string    // variable (assign) or callee (call)
	Argc     int       // call only
	Value    tac.Value // assign, param, and valued return
	HasValue bool      // return only
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectAssign:
		return fmt.Sprintf("assign %s.%s = %s", e.Scope, e.Name, e.Value)
	case EffectParam:
		return fmt.Sprintf("param %s", e.Value)
	case EffectCall:
		return fmt.Sprintf("call %s, %d", e.Name, e.Argc)
	case EffectReturn:
		if e.HasValue {
			return fmt.Sprintf("return %s from %s", e.Value, e.Scope)
		}
		return fmt.Sprintf("return from %s", e.Scope)
	}
	return fmt.Sprintf("EffectKind(%d)", int(e.Kind))
}
