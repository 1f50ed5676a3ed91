package core

import (
	"minic/src/token"

	"tinygo.org/x/go-llvm"
)

// Symbol binds a name to an IR value. The design notes call for a tagged
// variant over a loose bool: Addressable distinguishes a stack slot
// (Value is the alloca address, a load is required to read it) from a
// direct SSA value (Value is the value itself). The element/declared
// type is never read back off a bound Symbol — go-llvm's CreateLoad and
// CreateCall both take their type from the callee/pointer value itself
// — so it is not carried here.
type Symbol struct {
	Value       llvm.Value
	Addressable bool
}

// Env is the module-global half of the two-level environment of §3.
// The function-local half is never stored here: it is threaded through
// the compiler explicitly as a map, so that snapshotting it on entry to
// an if/while branch (cloneScope) is a plain, visible copy rather than a
// side effect hidden inside Env.
type Env struct {
	global map[string]Symbol
}

// NewEnv returns an empty global environment.
func NewEnv() *Env {
	return &Env{global: make(map[string]Symbol)}
}

// Lookup resolves name against local first, then global (§3: "Lookup
// consults local first, then global").
func (e *Env) Lookup(name string, local map[string]Symbol, span token.Span) (Symbol, error) {
	if local != nil {
		if s, ok := local[name]; ok {
			return s, nil
		}
	}
	if s, ok := e.global[name]; ok {
		return s, nil
	}
	return Symbol{}, &Error{Kind: UndefinedVariable, Span: span, Name: name}
}

// BindGlobal inserts sym into the module-global scope.
func (e *Env) BindGlobal(name string, sym Symbol) {
	e.global[name] = sym
}

// LookupGlobal resolves name only against the global scope. Used by
// TopLevelCompiler before a function body's local scope exists (e.g. to
// register a function under its own name for recursive self-reference).
func (e *Env) LookupGlobal(name string) (Symbol, bool) {
	s, ok := e.global[name]
	return s, ok
}

// cloneScope copies a function-local scope for a branch body (if/elif/
// else arm, while body). The clone is a distinct map: new bindings made
// inside the branch, or rebindings of a name to a new Symbol, are
// invisible once the branch ends (§4.7, §9). Stores through an already
// -addressable Symbol's alloca still persist, because the alloca address
// itself — not the map entry — is what the backing memory lives behind.
func cloneScope(local map[string]Symbol) map[string]Symbol {
	cp := make(map[string]Symbol, len(local))
	for k, v := range local {
		cp[k] = v
	}
	return cp
}
