package rem

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dekarrin/remora/lisp"
	"github.com/stretchr/testify/assert"
)

// lexAll drives Tokenize over the whole input and renders each token as a
// short descriptive string for comparison.
func lexAll(t *testing.T, input string) ([]string, bool) {
	t.Helper()

	symbols := lisp.NewProvider(lisp.CoreSymbols())
	env := lisp.NewEnvironment(nil, symbols)

	var out []string
	offset := 0
	for {
		tok, n := Tokenize(env, input, &offset)
		if tok == nil {
			return out, true
		}
		if tok == lisp.SymUnknown && n == 0 {
			return out, false
		}
		offset += n

		switch v := tok.(type) {
		case *lisp.Symbol:
			switch v {
			case lisp.SymOpen:
				out = append(out, "open")
			case lisp.SymClose:
				out = append(out, "close")
			case lisp.SymQuote:
				out = append(out, "quote")
			default:
				kind := "id"
				if v.Index < lisp.SymThis.Index {
					kind = "op"
				}
				out = append(out, kind+":"+symbols.NameOf(v))
			}
		case int:
			out = append(out, fmt.Sprintf("num:%d", v))
		case string:
			out = append(out, "str:"+v)
		default:
			out = append(out, fmt.Sprintf("?%T", v))
		}
	}
}

func Test_Tokenize_Sequences(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    []string
		expectBad bool
	}{
		{name: "blank string", input: "", expect: nil},
		{name: "only whitespace", input: "  \t\n ", expect: nil},
		{name: "only comment", input: "; all of this is skipped", expect: nil},
		{name: "number", input: "42", expect: []string{"num:42"}},
		{name: "negative number", input: "-12", expect: []string{"num:-12"}},
		{name: "bare minus is an operator", input: "-", expect: []string{"op:-"}},
		{name: "identifier", input: "glub", expect: []string{"id:glub"}},
		{name: "lambda literal", input: "=>", expect: []string{"op:=>"}},
		{name: "let resolves to the core symbol", input: "let", expect: []string{"op:let"}},
		{name: "operator word", input: "and", expect: []string{"op:and"}},
		{name: "word builtin is a plain identifier", input: "head", expect: []string{"id:head"}},
		{name: "empty list", input: "()", expect: []string{"open", "close"}},
		{name: "quoted identifier", input: "`x", expect: []string{"quote", "id:x"}},
		{name: "string literal", input: `"some fin"`, expect: []string{"str:some fin"}},
		{name: "string with escapes", input: `"a\"b\n"`, expect: []string{"str:a\"b\n"}},
		{name: "call with comment", input: "(+ 1 ; one\n 2)", expect: []string{
			"open", "op:+", "num:1", "num:2", "close",
		}},
		{name: "infix expression", input: "(1 + 2)", expect: []string{
			"open", "num:1", "op:+", "num:2", "close",
		}},
		{name: "unterminated string", input: `"glub`, expectBad: true},
		{name: "unrecognized character", input: "(a # b)", expect: []string{"open", "id:a"}, expectBad: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, clean := lexAll(t, tc.input)

			assert.Equal(!tc.expectBad, clean)
			assert.Equal(strings.Join(tc.expect, " "), strings.Join(actual, " "))
		})
	}
}

func Test_Tokenize_LambdaIsCoreSymbol(t *testing.T) {
	assert := assert.New(t)

	symbols := lisp.NewProvider(lisp.CoreSymbols())
	env := lisp.NewEnvironment(nil, symbols)

	offset := 0
	tok, _ := Tokenize(env, "=>", &offset)
	assert.Same(lisp.SymLambda, tok)
}
