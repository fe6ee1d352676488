package lisp

import "fmt"

// Symbol is an interned atomic identifier. A Symbol carries no name of its
// own; the name lives in the Provider that minted it. Identity is pointer
// identity: two Symbols with the same Index but distinct allocations are NOT
// the same symbol. This keeps user-minted symbols from ever colliding with
// the reserved singletons below, even if indices were to overlap.
type Symbol struct {
	// Index identifies the Symbol within its Provider. Index 0 is the
	// Unknown sentinel, negative indices are language-reserved builtins, and
	// positive indices are user-defined identifiers.
	Index int32
}

// String formats the symbol as [Symbol(i)]. Use Provider.NameOf to get the
// literal it was interned from.
func (sym *Symbol) String() string {
	return fmt.Sprintf("[Symbol(%d)]", sym.Index)
}

// IsBuiltin returns whether the symbol is language-reserved (non-positive
// index).
func (sym *Symbol) IsBuiltin() bool {
	return sym.Index <= 0
}

// The reserved core symbols. These are process-wide singletons; every
// Provider seeded with CoreSymbols maps its core literals to these exact
// pointers, so identity checks against them are valid across interpreter
// instances.
var (
	SymUnknown = &Symbol{Index: 0}
	SymOpen    = &Symbol{Index: -1}
	SymClose   = &Symbol{Index: -2}
	SymQuote   = &Symbol{Index: -3}
	SymParams  = &Symbol{Index: -4}
	SymThis    = &Symbol{Index: -5}
	SymLet     = &Symbol{Index: -6}
	SymLambda  = &Symbol{Index: -7}
)

// IsOperator returns whether v is something the evaluator dispatches on when
// found in the first or second slot of a list: either a Symbol whose index is
// below the builtin threshold (SymThis's index), or a memoized builtin cell
// that a prior evaluation wrote into the slot. Derived builtins use this to
// locate their own operator slot when handed the whole list.
func IsOperator(v any) bool {
	if _, ok := v.(*memoCell); ok {
		return true
	}
	if sym, ok := v.(*Symbol); ok {
		return sym.Index < SymThis.Index
	}
	return false
}
