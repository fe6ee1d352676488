package lisp

import "fmt"

// Interp is the evaluator core. It owns the symbol table, drives the parser,
// and reduces S-expression trees under lexical scoping. The zero value is
// ready for tree-input evaluation; Tokenize must be assigned before source
// text can be parsed. Derived interpreters supply Tokenize and Install and
// get let/lambda, closures, and scoping from here.
//
// An Interp must not be shared between goroutines that evaluate
// concurrently: reduction rewrites list slots in place and lookup caches
// into environments.
type Interp struct {
	// Tokenize is the lexing seam. Must be set before Parse, ParseIn, or any
	// Evaluate call that is given source text rather than a parsed tree.
	Tokenize Tokenizer

	// Install, if non-nil, is called once per Evaluate with the scope of
	// evaluation, after the core let and lambda builtins are in place.
	// Derived interpreters add their builtins here by chaining Set calls.
	Install func(scope *Environment)

	// Strict makes applying a non-callable head an evaluation error instead
	// of engaging the sequence fallback.
	Strict bool

	symbols *Provider
}

// NewInterp creates an Interp with the given symbol table and tokenizer. A
// nil symbols gets a fresh Provider seeded with CoreSymbols.
func NewInterp(symbols *Provider, tokenize Tokenizer) *Interp {
	return &Interp{Tokenize: tokenize, symbols: symbols}
}

// Symbols returns the ambient Provider, creating a default-seeded one on
// first use.
func (ip *Interp) Symbols() *Provider {
	if ip.symbols == nil {
		ip.symbols = NewProvider(CoreSymbols())
	}
	return ip.symbols
}

// Quote wraps an expression in the exact quote shape the evaluator
// recognizes: a two-element list of the Quote symbol and the expression.
func Quote(expr any) *List {
	return &List{Items: []any{SymQuote, expr}}
}

// Parse parses one S-expression from the input in a fresh root scope.
func (ip *Interp) Parse(input string) (any, error) {
	return ip.ParseIn(nil, input)
}

// ParseIn parses one S-expression from the input in the given scope, so the
// tokenizer interns literals through that scope's Provider. A nil env gets a
// fresh root scope on the ambient Provider.
func (ip *Interp) ParseIn(env *Environment, input string) (any, error) {
	if ip.Tokenize == nil {
		panic("lisp: Interp has no Tokenize set")
	}
	if env == nil {
		env = NewEnvironment(nil, ip.Symbols())
	}

	p := Parser{Tokenize: ip.Tokenize}
	return p.Parse(env, input)
}

// Eval parses the input as source text and evaluates it in a fresh scope.
func (ip *Interp) Eval(input string) (any, error) {
	return ip.Evaluate(nil, input)
}

// Evaluate evaluates input in a child scope of env, or of a fresh root scope
// on the ambient Provider if env is nil. The input may be source text (a
// string, which is parsed first) or an already-parsed S-expression tree; a
// tree is deep-copied before reduction, so the caller's artifact is never
// mutated and may be evaluated again.
//
// A failed parse returns a *SyntaxError. A builtin abort (see Raise)
// returns an EvalError. Everything else, including unbound identifiers,
// propagates through the result value per the core's soft-error semantics.
func (ip *Interp) Evaluate(env *Environment, input any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			ee, ok := r.(EvalError)
			if !ok {
				panic(r)
			}
			result = nil
			err = ee
		}
	}()

	var scope *Environment
	if env != nil {
		scope = NewEnvironment(env, nil)
	} else {
		scope = NewEnvironment(nil, ip.Symbols())
	}

	var expr any
	if src, ok := input.(string); ok {
		expr, err = ip.ParseIn(scope, src)
		if err != nil {
			return nil, err
		}
	} else {
		expr = input
	}
	expr = DeepCopy(expr)

	ip.install(scope)

	return ip.Reduce(scope, expr), nil
}

// install puts the core builtins into the scope if no binding for them is
// visible, then runs the derived interpreter's hook.
func (ip *Interp) install(scope *Environment) {
	if _, ok := scope.TryGet(SymLet); !ok {
		scope.Set(SymLet, Closure(ip.letBuiltin))
	}
	if _, ok := scope.TryGet(SymLambda); !ok {
		scope.Set(SymLambda, Closure(ip.lambdaBuiltin))
	}

	if ip.Install != nil {
		ip.Install(scope)
	}
}

// Reduce evaluates one already-parsed expression in env, in place. Derived
// builtins that receive raw (unevaluated) operands call this to evaluate
// them. Unlike Evaluate it does not copy, install builtins, or open a new
// scope.
func (ip *Interp) Reduce(env *Environment, x any) any {
	switch node := x.(type) {
	case *Symbol:
		if v, ok := env.TryGet(node); ok {
			return v
		}
		return SymUnknown
	case *List:
		return ip.reduceList(env, node)
	default:
		return x
	}
}

func (ip *Interp) reduceList(env *Environment, list *List) any {
	items := list.Items

	if len(items) == 0 {
		return Empty
	}
	if len(items) == 1 {
		return ip.reduceSingleton(env, list)
	}

	// quote form: yield the inner expression untouched.
	if items[0] == SymQuote {
		return items[1]
	}

	// a slot rewritten by a previous pass over this same physical list.
	// slot 0 is prefix style, slot 1 infix style.
	if cell, ok := items[0].(*memoCell); ok {
		return cell.call(env, items)
	}
	if cell, ok := items[1].(*memoCell); ok {
		return cell.call(env, items)
	}

	// dispatch builtin: a symbol below the builtin threshold in slot 0 or 1
	// resolves to its closure, and the slot is rewritten so the next
	// evaluation of this list skips the lookup. The whole list is passed as
	// the argument vector; operand evaluation is the builtin's business.
	for slot := 0; slot < 2; slot++ {
		sym, ok := items[slot].(*Symbol)
		if !ok || sym.Index >= SymThis.Index {
			continue
		}
		cell := &memoCell{call: ip.resolveBuiltin(env, sym)}
		items[slot] = cell
		return cell.call(env, items)
	}

	// applicative call: head is a closure, directly or after one level of
	// evaluation. Arguments evaluate left to right.
	cl, ok := items[0].(Closure)
	if !ok {
		hv := ip.Reduce(env, items[0])
		cl, ok = hv.(Closure)
		if !ok {
			if ip.Strict {
				Raise("cannot apply non-callable value %v", hv)
			}
			// sequence fallback: every element evaluates in order and the
			// last value wins. The head was just evaluated above.
			last := hv
			for _, it := range items[1:] {
				last = ip.Reduce(env, it)
			}
			return last
		}
		items[0] = cl
	}

	args := make([]any, len(items)-1)
	for i, it := range items[1:] {
		args[i] = ip.Reduce(env, it)
	}
	return cl(env, args)
}

// reduceSingleton applies the builtin/memoized/callable logic to the sole
// element of a one-element list. A bare closure is invoked with an empty
// argument vector; any other element is evaluated one level, a resulting
// closure is invoked with an empty argument vector, and any other result is
// returned as it is.
func (ip *Interp) reduceSingleton(env *Environment, list *List) any {
	sole := list.Items[0]

	if cell, ok := sole.(*memoCell); ok {
		return cell.call(env, list.Items)
	}
	if sym, ok := sole.(*Symbol); ok && sym.Index < SymThis.Index {
		cell := &memoCell{call: ip.resolveBuiltin(env, sym)}
		list.Items[0] = cell
		return cell.call(env, list.Items)
	}

	hv := sole
	if _, ok := sole.(Closure); !ok {
		hv = ip.Reduce(env, sole)
	}
	if cl, ok := hv.(Closure); ok {
		return cl(env, []any{})
	}
	return hv
}

// resolveBuiltin evaluates a below-threshold symbol to the closure it is
// bound to. A dispatch builtin that is not bound to a callable means the
// derived interpreter did not install what its tokenizer emits, which is a
// bug, not an evaluation outcome.
func (ip *Interp) resolveBuiltin(env *Environment, sym *Symbol) Closure {
	v := ip.Reduce(env, sym)
	cl, ok := v.(Closure)
	if !ok {
		panic(fmt.Sprintf("lisp: builtin %v is not bound to a callable", sym))
	}
	return cl
}

// letBuiltin is the Definition builtin: (let ((s1 e1) ... (sn en)) body...).
// Bindings evaluate sequentially in the new scope, so later bindings see
// earlier ones. The last body's value is returned; an empty body yields nil.
func (ip *Interp) letBuiltin(env *Environment, args []any) any {
	scope := NewEnvironment(env, nil)

	if len(args) < 2 {
		return nil
	}
	bindings, ok := args[1].(*List)
	if !ok {
		Raise("let: bindings must be a list")
	}

	for _, b := range bindings.Items {
		pair, ok := b.(*List)
		if !ok || len(pair.Items) < 2 {
			Raise("let: each binding must be a (symbol expression) pair")
		}
		sym, ok := pair.Items[0].(*Symbol)
		if !ok {
			Raise("let: binding name must be a symbol")
		}
		scope.Set(sym, ip.Reduce(scope, pair.Items[1]))
	}

	var result any
	for _, body := range args[2:] {
		result = ip.Reduce(scope, body)
	}
	return result
}

// lambdaBuiltin is the Abstraction builtin: (=> formals body). It produces a
// closure over the defining environment. Formals are a single symbol or a
// list of symbols; a final formal wrapped in a one-element list is variadic
// and collects excess arguments into a fresh list (or binds Unknown when
// there are none). Missing positional arguments bind Unknown. At invocation
// the closure also binds this (itself) and params (the raw argument vector).
func (ip *Interp) lambdaBuiltin(env *Environment, args []any) any {
	if len(args) < 3 {
		Raise("lambda: need formals and a body")
	}

	positional, variadic := ip.parseFormals(args[1])
	body := args[2]
	defEnv := env

	var cl Closure
	cl = func(_ *Environment, callArgs []any) any {
		scope := NewEnvironment(defEnv, nil)

		for i, sym := range positional {
			if i < len(callArgs) {
				scope.Set(sym, callArgs[i])
			} else {
				scope.Set(sym, SymUnknown)
			}
		}
		if variadic != nil {
			if len(callArgs) > len(positional) {
				rest := make([]any, len(callArgs)-len(positional))
				copy(rest, callArgs[len(positional):])
				scope.Set(variadic, &List{Items: rest})
			} else {
				scope.Set(variadic, SymUnknown)
			}
		}

		scope.Set(SymThis, cl)
		scope.Set(SymParams, &List{Items: callArgs})

		return ip.Reduce(scope, body)
	}
	return cl
}

func (ip *Interp) parseFormals(formals any) (positional []*Symbol, variadic *Symbol) {
	switch f := formals.(type) {
	case *Symbol:
		return []*Symbol{f}, nil
	case *List:
		for i, item := range f.Items {
			switch param := item.(type) {
			case *Symbol:
				positional = append(positional, param)
			case *List:
				if i != len(f.Items)-1 || len(param.Items) != 1 {
					Raise("lambda: only the final formal may be wrapped as variadic")
				}
				vs, ok := param.Items[0].(*Symbol)
				if !ok {
					Raise("lambda: variadic formal must be a symbol")
				}
				variadic = vs
			default:
				Raise("lambda: formals must be symbols")
			}
		}
		return positional, variadic
	default:
		Raise("lambda: formals must be a symbol or a list of symbols")
		return nil, nil
	}
}
