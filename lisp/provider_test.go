package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Provider_Intern(t *testing.T) {
	testCases := []struct {
		name      string
		literal   string
		asBuiltin bool
		expectIdx int32
	}{
		{name: "first user symbol", literal: "glub", asBuiltin: false, expectIdx: 8},
		{name: "first builtin symbol", literal: "+", asBuiltin: true, expectIdx: -8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			p := NewProvider(CoreSymbols())
			sym := p.Intern(tc.literal, tc.asBuiltin)

			assert.Equal(tc.expectIdx, sym.Index)
			assert.True(p.Contains(tc.literal))
			assert.Equal(tc.literal, p.NameOf(sym))
		})
	}
}

func Test_Provider_InternIsStable(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())

	first := p.Intern("fin", false)
	second := p.Intern("fin", false)
	assert.Same(first, second)

	// asBuiltin is ignored for an existing literal
	third := p.Intern("fin", true)
	assert.Same(first, third)
}

func Test_Provider_IndicesAreContiguous(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())

	a := p.Intern("a", false)
	b := p.Intern("b", true)
	c := p.Intern("c", false)

	assert.Equal(int32(8), a.Index)
	assert.Equal(int32(-9), b.Index)
	assert.Equal(int32(10), c.Index)
	assert.Equal(11, p.Len())
}

func Test_Provider_CoreSeed(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())

	assert.Same(SymUnknown, p.Intern("", false))
	assert.Same(SymOpen, p.Intern("(", false))
	assert.Same(SymClose, p.Intern(")", false))
	assert.Same(SymQuote, p.Intern("`", false))
	assert.Same(SymParams, p.Intern("params", false))
	assert.Same(SymThis, p.Intern("this", false))
	assert.Same(SymLet, p.Intern("let", false))
	assert.Same(SymLambda, p.Intern("=>", false))
}

func Test_Provider_SeedOutOfOrderPanics(t *testing.T) {
	assert := assert.New(t)

	badSeed := []SeedEntry{
		{"", SymUnknown},
		{"let", SymLet}, // index -6, but slot 1 requires -1
	}

	assert.Panics(func() {
		NewProvider(badSeed)
	})
}

func Test_Provider_NameOfForeignSymbolPanics(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	foreign := &Symbol{Index: 8}

	assert.Panics(func() {
		p.NameOf(foreign)
	})
}

func Test_Symbol_Identity(t *testing.T) {
	assert := assert.New(t)

	// equal indices, distinct allocations: not the same symbol
	minted := &Symbol{Index: SymLet.Index}
	assert.NotSame(SymLet, minted)
	assert.Equal("[Symbol(-6)]", SymLet.String())
	assert.Equal("[Symbol(0)]", SymUnknown.String())
}
