// Package rem is the reference dialect derived from the lisp evaluator
// core. It supplies the two seams the core leaves open - a tokenizer for a
// concrete surface syntax and a set of builtins - and wraps them in an
// Interpreter with a persistent top-level scope, suitable for REPLs, script
// runners, and embedding.
package rem

import (
	"fmt"
	"io"

	"github.com/dekarrin/remora/lisp"
	"github.com/google/uuid"
)

// Interpreter reads rem code and evaluates it. The zero value is ready for
// use; configuration fields must be assigned before the first call to Eval,
// Parse, or Symbols.
type Interpreter struct {
	// Output is where the print builtin writes. If nil, printed output is
	// discarded.
	Output io.Writer

	// File is the name of the file currently being executed. It is used in
	// error reporting and is optional to set.
	File string

	// Hardened replaces the "params" and "this" literals with freshly
	// generated unguessable strings, so user identifiers can neither read
	// nor rebind the closure self-reference and argument-reflection
	// bindings.
	Hardened bool

	// Strict makes applying a non-callable value an error instead of
	// engaging the evaluator's sequence fallback.
	Strict bool

	// LastResult is the result of the last successfully evaluated
	// expression.
	LastResult any

	core *lisp.Interp
	top  *lisp.Environment
}

// Init initializes the interpreter environment. All definitions made with
// def are removed and LastResult is reset. interp.File is not modified.
func (interp *Interpreter) Init() {
	interp.core = nil
	interp.top = nil
	interp.LastResult = nil
	interp.ensure()
}

// ensure lazily builds the evaluator core and the persistent top-level
// scope.
func (interp *Interpreter) ensure() {
	if interp.core != nil {
		return
	}

	seed := lisp.CoreSymbols()
	if interp.Hardened {
		for i := range seed {
			if seed[i].Symbol == lisp.SymParams {
				seed[i].Literal = "params." + uuid.NewString()
			}
			if seed[i].Symbol == lisp.SymThis {
				seed[i].Literal = "this." + uuid.NewString()
			}
		}
	}

	symbols := lisp.NewProvider(seed)
	interp.core = lisp.NewInterp(symbols, Tokenize)
	interp.core.Install = interp.installBuiltins
	interp.core.Strict = interp.Strict
	interp.top = lisp.NewEnvironment(nil, symbols)
}

// Eval parses the given string as rem code and evaluates it in the
// interpreter's persistent scope. The value of the expression is returned
// and stored in interp.LastResult. A syntax error in the text returns a
// non-nil error.
func (interp *Interpreter) Eval(code string) (any, error) {
	interp.ensure()

	v, err := interp.core.Evaluate(interp.top, code)
	if err != nil {
		return nil, interp.inFile(err)
	}

	interp.LastResult = v
	return v, nil
}

// EvalAll evaluates every top-level expression in the given string in
// order and returns the value of the last one. Unlike Eval, which accepts
// exactly one expression, this is the entry point for whole files.
func (interp *Interpreter) EvalAll(code string) (any, error) {
	interp.ensure()

	exprs, err := interp.ParseAll(code)
	if err != nil {
		return nil, err
	}

	var last any
	for _, expr := range exprs {
		last, err = interp.EvalTree(expr)
		if err != nil {
			return nil, err
		}
	}
	return last, nil
}

// EvalReader evaluates the entire contents of a Reader as rem code,
// expression by expression. Returns a non-nil error if there is a syntax
// error in the text or if there is an error reading bytes from the Reader.
func (interp *Interpreter) EvalReader(r io.Reader) (any, error) {
	code, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read code: %w", err)
	}
	return interp.EvalAll(string(code))
}

// EvalTree evaluates an already-parsed S-expression tree, such as one
// decoded from a compiled artifact, in the interpreter's persistent scope.
func (interp *Interpreter) EvalTree(tree any) (any, error) {
	interp.ensure()

	// the core takes a string as source text; a string handed to EvalTree
	// is a parsed atom, so shield it behind a quote
	if s, ok := tree.(string); ok {
		tree = lisp.Quote(s)
	}

	v, err := interp.core.Evaluate(interp.top, tree)
	if err != nil {
		return nil, interp.inFile(err)
	}

	interp.LastResult = v
	return v, nil
}

// Parse parses (but does not evaluate) rem code into an S-expression tree
// for further examination or encoding. The tree may be evaluated any number
// of times with EvalTree.
func (interp *Interpreter) Parse(code string) (any, error) {
	interp.ensure()

	tree, err := interp.core.ParseIn(interp.top, code)
	if err != nil {
		return nil, interp.inFile(err)
	}
	return tree, nil
}

// ParseAll parses every top-level expression in the given string and returns
// the trees in order.
func (interp *Interpreter) ParseAll(code string) ([]any, error) {
	interp.ensure()

	p := lisp.Parser{Tokenize: Tokenize}
	var exprs []any
	offset := 0
	for {
		expr, newOffset, err := p.ParseAt(interp.top, code, offset)
		if err == io.EOF {
			return exprs, nil
		}
		if err != nil {
			return nil, interp.inFile(err)
		}
		exprs = append(exprs, expr)
		offset = newOffset
	}
}

// ParseReader parses (but does not evaluate) the entire contents of a Reader
// as rem code, returning one tree per top-level expression.
func (interp *Interpreter) ParseReader(r io.Reader) ([]any, error) {
	code, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read code: %w", err)
	}
	return interp.ParseAll(string(code))
}

// Symbols returns the interpreter's ambient symbol table.
func (interp *Interpreter) Symbols() *lisp.Provider {
	interp.ensure()
	return interp.core.Symbols()
}

// FormatValue renders an evaluation result for display.
func (interp *Interpreter) FormatValue(v any) string {
	interp.ensure()
	return Format(interp.core.Symbols(), v)
}

// inFile prefixes an error with the current file name, if one is set.
func (interp *Interpreter) inFile(err error) error {
	if interp.File == "" {
		return err
	}
	return fmt.Errorf("%s: %w", interp.File, err)
}
