package rem

import (
	"fmt"
	"io"

	"github.com/dekarrin/remora/lisp"
)

// file builtins.go contains the rem dialect's builtin functions, installed
// into each evaluation scope through the core's Install hook.

// installBuiltins populates the evaluation scope. The arithmetic and
// comparison operators and the control words and, or, if, and def are
// dispatch style (they receive the raw list and evaluate their own
// operands); not, list, head, rest, len, and print are plain closures
// applied to already evaluated arguments.
func (interp *Interpreter) installBuiltins(scope *lisp.Environment) {
	symbols := scope.Symbols()
	bindOp := func(literal string, cl lisp.Closure) {
		scope.Set(symbols.Intern(literal, true), cl)
	}
	bind := func(literal string, cl lisp.Closure) {
		scope.Set(symbols.Intern(literal, false), cl)
	}

	bindOp("+", interp.arithOp("+", func(a, b int) int { return a + b }))
	bindOp("-", interp.arithOp("-", func(a, b int) int { return a - b }))
	bindOp("*", interp.arithOp("*", func(a, b int) int { return a * b }))
	bindOp("/", interp.arithOp("/", func(a, b int) int {
		if b == 0 {
			lisp.Raise("/: division by zero")
		}
		return a / b
	}))

	bindOp("=", interp.compareOp(func(a, b any) bool { return valueEqual(a, b) }))
	bindOp("!=", interp.compareOp(func(a, b any) bool { return !valueEqual(a, b) }))
	bindOp("<", interp.orderOp("<", func(a, b int) bool { return a < b }))
	bindOp("<=", interp.orderOp("<=", func(a, b int) bool { return a <= b }))
	bindOp(">", interp.orderOp(">", func(a, b int) bool { return a > b }))
	bindOp(">=", interp.orderOp(">=", func(a, b int) bool { return a >= b }))

	bindOp("and", func(env *lisp.Environment, args []any) any {
		var last any = true
		for _, op := range operands(args) {
			last = interp.core.Reduce(env, op)
			if !Truthy(last) {
				return last
			}
		}
		return last
	})
	bindOp("or", func(env *lisp.Environment, args []any) any {
		var last any = false
		for _, op := range operands(args) {
			last = interp.core.Reduce(env, op)
			if Truthy(last) {
				return last
			}
		}
		return last
	})

	bindOp("if", func(env *lisp.Environment, args []any) any {
		ops := operands(args)
		if len(ops) < 2 {
			lisp.Raise("if: need a condition and at least one branch")
		}
		if Truthy(interp.core.Reduce(env, ops[0])) {
			return interp.core.Reduce(env, ops[1])
		}
		if len(ops) > 2 {
			return interp.core.Reduce(env, ops[2])
		}
		return nil
	})

	bindOp("def", func(env *lisp.Environment, args []any) any {
		ops := operands(args)
		if len(ops) < 2 {
			lisp.Raise("def: need a name and a value expression")
		}
		sym, ok := ops[0].(*lisp.Symbol)
		if !ok {
			lisp.Raise("def: name must be an identifier")
		}
		val := interp.core.Reduce(env, ops[1])
		interp.top.Set(sym, val)
		return val
	})

	bind("not", func(env *lisp.Environment, args []any) any {
		if len(args) < 1 {
			return true
		}
		return !Truthy(args[0])
	})

	bind("list", func(env *lisp.Environment, args []any) any {
		items := make([]any, len(args))
		copy(items, args)
		return &lisp.List{Items: items}
	})

	bind("head", func(env *lisp.Environment, args []any) any {
		if len(args) < 1 {
			return lisp.SymUnknown
		}
		if l, ok := args[0].(*lisp.List); ok && len(l.Items) > 0 {
			return l.Items[0]
		}
		return lisp.SymUnknown
	})

	bind("rest", func(env *lisp.Environment, args []any) any {
		if len(args) < 1 {
			return lisp.Empty
		}
		l, ok := args[0].(*lisp.List)
		if !ok || len(l.Items) < 2 {
			return lisp.Empty
		}
		items := make([]any, len(l.Items)-1)
		copy(items, l.Items[1:])
		return &lisp.List{Items: items}
	})

	bind("len", func(env *lisp.Environment, args []any) any {
		if len(args) < 1 {
			return lisp.SymUnknown
		}
		switch v := args[0].(type) {
		case *lisp.List:
			return len(v.Items)
		case string:
			return len(v)
		default:
			return lisp.SymUnknown
		}
	})

	bind("print", func(env *lisp.Environment, args []any) any {
		out := interp.Output
		if out == nil {
			out = io.Discard
		}
		for i, a := range args {
			if i > 0 {
				fmt.Fprint(out, " ")
			}
			fmt.Fprint(out, interp.FormatValue(a))
		}
		fmt.Fprintln(out)
		if len(args) < 1 {
			return nil
		}
		return args[len(args)-1]
	})
}

// operands strips the operator's own slot out of the raw list a dispatch
// builtin receives, leaving the operand expressions in order regardless of
// prefix or infix placement.
func operands(items []any) []any {
	if len(items) > 0 && lisp.IsOperator(items[0]) {
		return items[1:]
	}
	if len(items) >= 2 && lisp.IsOperator(items[1]) {
		out := make([]any, 0, len(items)-1)
		out = append(out, items[0])
		out = append(out, items[2:]...)
		return out
	}
	return items
}

func (interp *Interpreter) arithOp(name string, apply func(a, b int) int) lisp.Closure {
	return func(env *lisp.Environment, args []any) any {
		ops := operands(args)
		if len(ops) < 1 {
			lisp.Raise("%s: need at least one operand", name)
		}

		vals := make([]int, len(ops))
		for i, op := range ops {
			v := interp.core.Reduce(env, op)
			n, ok := v.(int)
			if !ok {
				lisp.Raise("%s: operand %d is not a number", name, i+1)
			}
			vals[i] = n
		}

		// single operand to - negates; to the others it is the identity
		if len(vals) == 1 && name == "-" {
			return -vals[0]
		}

		total := vals[0]
		for _, v := range vals[1:] {
			total = apply(total, v)
		}
		return total
	}
}

func (interp *Interpreter) compareOp(pred func(a, b any) bool) lisp.Closure {
	return func(env *lisp.Environment, args []any) any {
		ops := operands(args)
		if len(ops) < 2 {
			return true
		}
		prev := interp.core.Reduce(env, ops[0])
		for _, op := range ops[1:] {
			cur := interp.core.Reduce(env, op)
			if !pred(prev, cur) {
				return false
			}
			prev = cur
		}
		return true
	}
}

func (interp *Interpreter) orderOp(name string, pred func(a, b int) bool) lisp.Closure {
	return func(env *lisp.Environment, args []any) any {
		ops := operands(args)
		if len(ops) < 2 {
			return true
		}

		vals := make([]int, len(ops))
		for i, op := range ops {
			v := interp.core.Reduce(env, op)
			n, ok := v.(int)
			if !ok {
				lisp.Raise("%s: operand %d is not a number", name, i+1)
			}
			vals[i] = n
		}
		for i := 1; i < len(vals); i++ {
			if !pred(vals[i-1], vals[i]) {
				return false
			}
		}
		return true
	}
}

// valueEqual compares two evaluated values the way = does: by value for the
// scalar kinds, by identity for symbols and lists, never equal otherwise.
func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	case *lisp.Symbol:
		bv, ok := b.(*lisp.Symbol)
		return ok && av == bv
	case *lisp.List:
		bv, ok := b.(*lisp.List)
		return ok && av == bv
	default:
		return false
	}
}

// Truthy reports how rem reads a value in boolean position: false, nil, zero,
// the empty string, the empty list, and the Unknown sentinel are falsey,
// everything else is truthy.
func Truthy(v any) bool {
	switch tv := v.(type) {
	case nil:
		return false
	case bool:
		return tv
	case int:
		return tv != 0
	case string:
		return tv != ""
	case *lisp.Symbol:
		return tv != lisp.SymUnknown
	case *lisp.List:
		return len(tv.Items) > 0
	default:
		return true
	}
}
