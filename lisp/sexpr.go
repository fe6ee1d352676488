package lisp

// S-expressions are heterogeneous trees. A node is one of:
//
//   - an atom: any Go value that is not a *List, including nil, numbers,
//     strings, *Symbol, Closure, and opaque host values;
//   - a *List: an ordered sequence of nodes;
//   - a memoized-builtin cell: an opaque wrapper the evaluator writes into a
//     list slot after resolving a dispatch builtin there, so repeat
//     evaluations of the same physical list skip the lookup.
//
// The evaluator mutates list slots in place (cells and resolved closures)
// but never changes a list's shape after parsing.

// List is an S-expression list node. Lists compare by reference; the
// evaluator relies on this when rewriting slots of a particular physical
// list.
type List struct {
	Items []any
}

// Empty is the canonical empty list, returned whenever an empty list is
// evaluated.
var Empty = &List{}

// Closure is a first-class callable S-expression atom: lambdas, installed
// builtins, and resolved dispatch builtins are all Closures. Dispatch
// builtins receive the entire list they were found in as args; applicative
// calls receive the already-evaluated argument values.
type Closure func(env *Environment, args []any) any

// memoCell is the memoized-builtin wrapper. Cells are produced only by the
// evaluator, never by the parser, and live inside the list they were written
// into.
type memoCell struct {
	call Closure
}

// DeepCopy returns a structural copy of the expression: fresh *List nodes
// all the way down, with atoms (including memoized cells) shared. Evaluate
// copies its input with this before reducing, so the artifact returned by
// Parse stays reusable across calls.
//
// Quote payloads are shared, not copied: evaluation never descends into
// them, so they cannot be rewritten, and sharing keeps the promise that
// evaluating a quote form yields the quoted expression itself.
func DeepCopy(expr any) any {
	list, ok := expr.(*List)
	if !ok {
		return expr
	}

	cp := &List{Items: make([]any, len(list.Items))}
	if len(list.Items) >= 2 && list.Items[0] == SymQuote {
		copy(cp.Items, list.Items)
		return cp
	}
	for i := range list.Items {
		cp.Items[i] = DeepCopy(list.Items[i])
	}
	return cp
}
