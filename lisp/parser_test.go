package lisp

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testTokenize is a minimal Tokenizer for exercising the parser and
// evaluator: parens, backtick quote, integer literals, and identifiers.
// Anything else is an unrecognized character.
func testTokenize(env *Environment, input string, offset *int) (any, int) {
	for *offset < len(input) && isSpace(input[*offset]) {
		*offset++
	}
	if *offset >= len(input) {
		return nil, 0
	}

	switch input[*offset] {
	case '(':
		return SymOpen, 1
	case ')':
		return SymClose, 1
	case '`':
		return SymQuote, 1
	}

	if isDigit(input[*offset]) {
		end := *offset
		for end < len(input) && isDigit(input[end]) {
			end++
		}
		n, err := strconv.Atoi(input[*offset:end])
		if err != nil {
			panic("test tokenizer scanned a non-number: " + input[*offset:end])
		}
		return n, end - *offset
	}

	if isIdentChar(input[*offset]) {
		end := *offset
		for end < len(input) && (isIdentChar(input[end]) || isDigit(input[end])) {
			end++
		}
		return env.Symbols().Intern(input[*offset:end], false), end - *offset
	}

	return SymUnknown, 0
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentChar(ch byte) bool {
	if ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' {
		return true
	}
	switch ch {
	case '+', '-', '*', '/', '<', '>', '=', '!':
		return true
	}
	return false
}

func testInterp() *Interp {
	return NewInterp(nil, testTokenize)
}

func Test_Parser_WellFormed(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "bare atom", input: "42"},
		{name: "bare identifier", input: "glub"},
		{name: "empty list", input: "()"},
		{name: "flat list", input: "(a b c)"},
		{name: "nested list", input: "(a (b (c)) d)"},
		{name: "quoted atom", input: "`x"},
		{name: "quoted list", input: "`(a b)"},
		{name: "leading whitespace", input: "   (a)"},
		{name: "trailing whitespace", input: "(a)   "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			ip := testInterp()
			_, err := ip.Parse(tc.input)
			assert.NoError(err)
		})
	}
}

func Test_Parser_Errors(t *testing.T) {
	testCases := []struct {
		name         string
		input        string
		expectOffset int
		expectChar   rune
	}{
		{name: "empty input", input: "", expectOffset: 0},
		{name: "unexpected char at start", input: "#", expectOffset: 0, expectChar: '#'},
		{name: "unexpected char in list", input: "(a # b)", expectOffset: 3, expectChar: '#'},
		{name: "EOF inside list", input: "(a b", expectOffset: 4},
		{name: "EOF inside nested list", input: "(a (b c)", expectOffset: 8},
		{name: "EOF after quote", input: "`", expectOffset: 1},
		{name: "trailing atom", input: "(a) b", expectOffset: 4},
		{name: "trailing list", input: "x ()", expectOffset: 2},
		{name: "stray close paren", input: ")", expectOffset: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			ip := testInterp()
			_, err := ip.Parse(tc.input)

			if !assert.Error(err) {
				return
			}
			synErr, ok := err.(*SyntaxError)
			if !assert.True(ok, "error is not a *SyntaxError: %v", err) {
				return
			}
			assert.Equal(tc.expectOffset, synErr.Offset())
			if tc.expectChar != 0 {
				assert.Equal(tc.expectChar, synErr.Char())
			}
		})
	}
}

func Test_Parser_QuoteShape(t *testing.T) {
	assert := assert.New(t)

	ip := testInterp()
	expr, err := ip.Parse("`(a b)")
	assert.NoError(err)

	list, ok := expr.(*List)
	if !assert.True(ok) {
		return
	}
	if !assert.Len(list.Items, 2) {
		return
	}
	assert.Same(SymQuote, list.Items[0])

	inner, ok := list.Items[1].(*List)
	if !assert.True(ok) {
		return
	}
	assert.Len(inner.Items, 2)
}

func Test_Parser_StructuralSymbolsResolve(t *testing.T) {
	assert := assert.New(t)

	ip := testInterp()
	expr, err := ip.Parse("(let x)")
	assert.NoError(err)

	list := expr.(*List)
	assert.Same(SymLet, list.Items[0])
}
