package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// GlobalScope is the name of the scope holding top-level declarations.
const GlobalScope = "global"

type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymParam
	SymFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymParam:
		return "param"
	case SymFunction:
		return "function"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is what the table records about one declared identifier.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Type     TokenType   // declared type, or return type for functions
	Line     int         // declaration line
	Params   []TokenType // parameter types, functions only
	Index    int         // position in the parameter list, params only
	Used     bool        // read (variables) or called (functions)
	Assigned bool        // written at least once; params start assigned
}

// SymbolTable maps identifiers to declarations. There is one scope per
// function, named after it, plus GlobalScope; blocks do not open scopes.
//
// The table also carries the current-scope cursor that the checker and the
// lowering pass switch on function entry.
type SymbolTable struct {
	scopes  map[string]map[string]*Symbol
	order   []string
	current string
}

func NewSymbolTable() *SymbolTable {
	s := &SymbolTable{scopes: make(map[string]map[string]*Symbol)}
	s.AddScope(GlobalScope)
	s.current = GlobalScope
	return s
}

// AddScope creates an empty scope. Adding an existing scope is a no-op.
func (s *SymbolTable) AddScope(name string) {
	if _, ok := s.scopes[name]; ok {
		return
	}
	s.scopes[name] = make(map[string]*Symbol)
	s.order = append(s.order, name)
}

// HasScope reports whether a scope with the given name exists.
func (s *SymbolTable) HasScope(name string) bool {
	_, ok := s.scopes[name]
	return ok
}

// Scope returns the name of the current scope.
func (s *SymbolTable) Scope() string { return s.current }

// SetScope moves the cursor. The scope must exist.
func (s *SymbolTable) SetScope(name string) {
	if _, ok := s.scopes[name]; !ok {
		panic(fmt.Sprintf("symtable: SetScope on unknown scope %q", name))
	}
	s.current = name
}

// Define adds sym to the current scope. It fails if the name is already
// declared in that scope.
func (s *SymbolTable) Define(sym Symbol) (*Symbol, error) {
	scope := s.scopes[s.current]
	if prev, ok := scope[sym.Name]; ok {
		return prev, fmt.Errorf("%s already declared on line %d", sym.Name, prev.Line)
	}
	entry := sym
	scope[sym.Name] = &entry
	return &entry, nil
}

// Lookup resolves name in the current scope, then in GlobalScope.
func (s *SymbolTable) Lookup(name string) (*Symbol, bool) {
	if sym, ok := s.scopes[s.current][name]; ok {
		return sym, true
	}
	sym, ok := s.scopes[GlobalScope][name]
	return sym, ok
}

// LookupIn resolves name in one scope only.
func (s *SymbolTable) LookupIn(scope, name string) (*Symbol, bool) {
	sym, ok := s.scopes[scope][name]
	return sym, ok
}

// Scopes returns scope names in creation order, GlobalScope first.
func (s *SymbolTable) Scopes() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Symbols returns the symbols of one scope ordered by declaration line, then name.
func (s *SymbolTable) Symbols(scope string) []*Symbol {
	syms := make([]*Symbol, 0, len(s.scopes[scope]))
	for _, sym := range s.scopes[scope] {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Line != syms[j].Line {
			return syms[i].Line < syms[j].Line
		}
		return syms[i].Name < syms[j].Name
	})
	return syms
}

// Names returns the parameter and local variable names of a function scope,
// parameters first in declaration order.
func (s *SymbolTable) Names(scope string) (params, locals []string) {
	for _, sym := range s.Symbols(scope) {
		if sym.Kind == SymVariable {
			locals = append(locals, sym.Name)
		}
	}
	return s.paramNames(scope), locals
}

// paramNames returns a function's parameter names in declaration order.
func (s *SymbolTable) paramNames(scope string) []string {
	var params []*Symbol
	for _, sym := range s.scopes[scope] {
		if sym.Kind == SymParam {
			params = append(params, sym)
		}
	}
	if len(params) == 0 {
		return nil
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Index < params[j].Index })
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func (s *SymbolTable) String() string {
	var sb strings.Builder
	for _, scope := range s.order {
		fmt.Fprintf(&sb, "scope %s\n", scope)
		for _, sym := range s.Symbols(scope) {
			fmt.Fprintf(&sb, "  %-12s %-8s %-5s line %d", sym.Name, sym.Kind, sym.Type.TypeName(), sym.Line)
			if sym.Kind == SymFunction {
				params := make([]string, len(sym.Params))
				for i, p := range sym.Params {
					params[i] = p.TypeName()
				}
				fmt.Fprintf(&sb, " (%s)", strings.Join(params, ", "))
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
