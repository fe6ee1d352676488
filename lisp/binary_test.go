package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_EncodeDecodeTree(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	ip := NewInterp(p, testTokenize)

	tree, err := ip.Parse("(let ((x 42)) `(x glub) ())")
	assert.NoError(err)

	data, err := EncodeTree(p, tree)
	assert.NoError(err)

	// decode through a fresh provider: core symbols come back as the
	// reserved singletons, user symbols re-intern
	p2 := NewProvider(CoreSymbols())
	decoded, err := DecodeTree(p2, data)
	assert.NoError(err)

	list, ok := decoded.(*List)
	if !assert.True(ok) {
		return
	}
	assert.Same(SymLet, list.Items[0])

	// and the decoded tree still evaluates
	ip2 := NewInterp(p2, testTokenize)
	result, err := ip2.Evaluate(nil, decoded)
	assert.NoError(err)
	assert.Same(Empty, result)
}

func Test_EncodeTree_AtomKinds(t *testing.T) {
	testCases := []struct {
		name string
		node any
	}{
		{name: "nil", node: nil},
		{name: "bool", node: true},
		{name: "int", node: -12},
		{name: "float", node: 2.5},
		{name: "string", node: "some fin"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			p := NewProvider(CoreSymbols())
			data, err := EncodeTree(p, tc.node)
			assert.NoError(err)

			decoded, err := DecodeTree(p, data)
			assert.NoError(err)
			assert.Equal(tc.node, decoded)
		})
	}
}

func Test_EncodeTree_RefusesRuntimeNodes(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())

	var cl Closure = func(env *Environment, args []any) any { return nil }
	_, err := EncodeTree(p, &List{Items: []any{cl}})
	assert.Error(err)

	_, err = EncodeTree(p, &List{Items: []any{&memoCell{}}})
	assert.Error(err)
}

func Test_Tree_BinaryRoundTrip(t *testing.T) {
	assert := assert.New(t)

	p := NewProvider(CoreSymbols())
	ip := NewInterp(p, testTokenize)

	root, err := ip.Parse("((=> x x) 42)")
	assert.NoError(err)

	data, err := Tree{Root: root, Symbols: p}.MarshalBinary()
	assert.NoError(err)

	var decoded Tree
	err = decoded.UnmarshalBinary(data)
	assert.NoError(err)

	ip2 := NewInterp(decoded.Symbols, testTokenize)
	result, err := ip2.Evaluate(nil, decoded.Root)
	assert.NoError(err)
	assert.Equal(42, result)
}
