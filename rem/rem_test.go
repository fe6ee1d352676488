package rem

import (
	"bytes"
	"testing"

	"github.com/dekarrin/remora/lisp"
	"github.com/stretchr/testify/assert"
)

func Test_Interpreter_Eval(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect any
	}{
		{name: "number", input: "42", expect: 42},
		{name: "string", input: `"some fin"`, expect: "some fin"},
		{name: "prefix addition", input: "(+ 1 2)", expect: 3},
		{name: "infix addition", input: "(1 + 2)", expect: 3},
		{name: "nested arithmetic", input: "(2 * (3 + 4))", expect: 14},
		{name: "unary minus", input: "(- 5)", expect: -5},
		{name: "variadic subtraction", input: "(- 10 2 3)", expect: 5},
		{name: "division", input: "(10 / 2)", expect: 5},
		{name: "less than", input: "(1 < 2)", expect: true},
		{name: "chained order", input: "(< 1 2 3)", expect: true},
		{name: "chained order fails", input: "(< 1 3 2)", expect: false},
		{name: "equality", input: "(= 2 2)", expect: true},
		{name: "string equality", input: `("a" = "a")`, expect: true},
		{name: "inequality", input: "(1 != 2)", expect: true},
		{name: "if true branch", input: "(if (1 < 2) 10 20)", expect: 10},
		{name: "if false branch", input: "(if (2 < 1) 10 20)", expect: 20},
		{name: "if without else", input: "(if (2 < 1) 10)", expect: nil},
		{name: "if is lazy", input: "(if 1 2 (/ 1 0))", expect: 2},
		{name: "and returns last truthy", input: "(and 1 2)", expect: 2},
		{name: "and short-circuits", input: "(and 0 (/ 1 0))", expect: 0},
		{name: "or returns first truthy", input: "(or 0 3)", expect: 3},
		{name: "not", input: "(not 0)", expect: true},
		{name: "len of list", input: "(len (list 1 2 3))", expect: 3},
		{name: "len of string", input: `(len "abc")`, expect: 3},
		{name: "head", input: "(head (list 1 2 3))", expect: 1},
		{name: "identity lambda", input: "((=> x x) 42)", expect: 42},
		{name: "lexical closure", input: "(let ((f (=> x (=> y x)))) ((f 7) 99))", expect: 7},
		{name: "self recursion via this", input: "((=> n (if (n < 2) 1 (n * (this (n - 1))))) 5)", expect: 120},
		{name: "comment in expression", input: "(+ 1 ; one more\n 2)", expect: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			interp := &Interpreter{}
			actual, err := interp.Eval(tc.input)

			assert.NoError(err)
			assert.Equal(tc.expect, actual)
			assert.Equal(tc.expect, interp.LastResult)
		})
	}
}

func Test_Interpreter_DefPersistsAcrossEvals(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}

	v, err := interp.Eval("(def x 5)")
	assert.NoError(err)
	assert.Equal(5, v)

	v, err = interp.Eval("(x + 1)")
	assert.NoError(err)
	assert.Equal(6, v)
}

func Test_Interpreter_DefRecursiveFunction(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}

	_, err := interp.Eval("(def fact (=> n (if (n < 2) 1 (n * (fact (n - 1))))))")
	assert.NoError(err)

	v, err := interp.Eval("(fact 5)")
	assert.NoError(err)
	assert.Equal(120, v)
}

func Test_Interpreter_Init(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}
	_, err := interp.Eval("(def x 5)")
	assert.NoError(err)

	interp.Init()

	v, err := interp.Eval("x")
	assert.NoError(err)
	assert.Same(lisp.SymUnknown, v)
}

func Test_Interpreter_Print(t *testing.T) {
	assert := assert.New(t)

	buf := &bytes.Buffer{}
	interp := &Interpreter{Output: buf}

	v, err := interp.Eval(`(print "hello" 42)`)
	assert.NoError(err)
	assert.Equal(42, v)
	assert.Equal("hello 42\n", buf.String())
}

func Test_Interpreter_QuoteFormatting(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}
	v, err := interp.Eval("`(a b (c 1))")
	assert.NoError(err)
	assert.Equal("(a b (c 1))", interp.FormatValue(v))
}

func Test_Interpreter_UnboundFormatsAsUnknown(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}
	v, err := interp.Eval("zzz")
	assert.NoError(err)
	assert.Same(lisp.SymUnknown, v)
	assert.Equal("unknown", interp.FormatValue(v))
}

func Test_Interpreter_Hardened(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{Hardened: true}

	// "this" and "params" intern as ordinary user identifiers and resolve
	// to nothing
	v, err := interp.Eval("((=> x this) 1)")
	assert.NoError(err)
	assert.Same(lisp.SymUnknown, v)

	v, err = interp.Eval("((=> x params) 1)")
	assert.NoError(err)
	assert.Same(lisp.SymUnknown, v)

	// everything else is unaffected
	v, err = interp.Eval("((=> x x) 7)")
	assert.NoError(err)
	assert.Equal(7, v)
}

func Test_Interpreter_Strict(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{Strict: true}
	_, err := interp.Eval("(1 2 3)")
	assert.Error(err)

	relaxed := &Interpreter{}
	v, err := relaxed.Eval("(1 2 3)")
	assert.NoError(err)
	assert.Equal(3, v)
}

func Test_Interpreter_SyntaxErrorNamesFile(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{File: "boot.rem"}
	_, err := interp.Eval("(a b")

	if !assert.Error(err) {
		return
	}
	assert.Contains(err.Error(), "boot.rem")
	assert.Contains(err.Error(), "unexpected end of input")
}

func Test_Interpreter_EvalError(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}
	_, err := interp.Eval("(1 / 0)")

	if !assert.Error(err) {
		return
	}
	assert.Contains(err.Error(), "division by zero")
}

func Test_Interpreter_EvalAll(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}
	v, err := interp.EvalAll("(def a 3)\n(def b 4)\n((a * a) + (b * b))")

	assert.NoError(err)
	assert.Equal(25, v)

	// definitions from earlier expressions are visible later
	v, err = interp.Eval("(a + b)")
	assert.NoError(err)
	assert.Equal(7, v)
}

func Test_Interpreter_ParseAll(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}
	trees, err := interp.ParseAll("1 2 (3 + 4)")

	assert.NoError(err)
	assert.Len(trees, 3)
	assert.Equal(1, trees[0])
	assert.Equal(2, trees[1])

	// empty input gives no trees and no error
	trees, err = interp.ParseAll("  ; just a comment\n")
	assert.NoError(err)
	assert.Empty(trees)
}

func Test_Interpreter_ParseThenEvalTree(t *testing.T) {
	assert := assert.New(t)

	interp := &Interpreter{}
	tree, err := interp.Parse("((=> x (x * x)) 6)")
	assert.NoError(err)

	v, err := interp.EvalTree(tree)
	assert.NoError(err)
	assert.Equal(36, v)

	// the tree survives evaluation and can run again
	v, err = interp.EvalTree(tree)
	assert.NoError(err)
	assert.Equal(36, v)
}
