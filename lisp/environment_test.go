package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Environment_SetThenGet(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	env := NewEnvironment(nil, p)
	sym := p.Intern("x", false)

	env.Set(sym, 42)

	v, ok := env.TryGet(sym)
	assert.True(ok)
	assert.Equal(42, v)
	assert.True(env.Contains(sym))
	assert.True(env.ContainsName("x"))
}

func Test_Environment_SetIsChainable(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	env := NewEnvironment(nil, p)
	a := p.Intern("a", false)
	b := p.Intern("b", false)

	env.Set(a, 1).Set(b, 2)

	av, _ := env.TryGet(a)
	bv, _ := env.TryGet(b)
	assert.Equal(1, av)
	assert.Equal(2, bv)
}

func Test_Environment_UpwardLookup(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	parent := NewEnvironment(nil, p)
	child := NewEnvironment(parent, nil)
	sym := p.Intern("x", false)

	parent.Set(sym, "glub")

	v, ok := child.TryGet(sym)
	assert.True(ok)
	assert.Equal("glub", v)
	assert.Same(p, child.Symbols())
}

func Test_Environment_UpwardLookupCachesLocally(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	parent := NewEnvironment(nil, p)
	child := NewEnvironment(parent, nil)
	sym := p.Intern("x", false)

	parent.Set(sym, 1)

	// before any read through the child, parent updates are visible
	parent.Set(sym, 2)
	v, _ := child.TryGet(sym)
	assert.Equal(2, v)

	// after the read the binding is snapshotted at the leaf; later parent
	// mutations are no longer seen through this child
	parent.Set(sym, 3)
	v, _ = child.TryGet(sym)
	assert.Equal(2, v)

	// the parent itself sees its own update
	v, _ = parent.TryGet(sym)
	assert.Equal(3, v)
}

func Test_Environment_SetShadowsParent(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	parent := NewEnvironment(nil, p)
	child := NewEnvironment(parent, nil)
	sym := p.Intern("x", false)

	parent.Set(sym, "outer")
	child.Set(sym, "inner")

	cv, _ := child.TryGet(sym)
	pv, _ := parent.TryGet(sym)
	assert.Equal("inner", cv)
	assert.Equal("outer", pv)
}

func Test_Environment_NotFound(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	env := NewEnvironment(nil, p)

	_, ok := env.TryGet(p.Intern("nope", false))
	assert.False(ok)

	_, ok = env.TryGetName("never-interned")
	assert.False(ok)
}

func Test_Environment_RootWithoutProviderPanics(t *testing.T) {
	assert := assert.New(t)

	assert.Panics(func() {
		NewEnvironment(nil, nil)
	})
}
