package lisp

import "fmt"

// SeedEntry is a single (literal, symbol) pair used to pre-populate a
// Provider at construction time.
type SeedEntry struct {
	Literal string
	Symbol  *Symbol
}

// CoreSymbols returns the conventional seeding table binding the default
// literals to the reserved core symbols. The order is significant: each
// entry's symbol index must be the negation of its position, which is what
// NewProvider verifies.
//
// The "params" and "this" literals may be replaced with unguessable strings
// by a derived interpreter; see the hardened option on such interpreters.
func CoreSymbols() []SeedEntry {
	return []SeedEntry{
		{"", SymUnknown},
		{"(", SymOpen},
		{")", SymClose},
		{"`", SymQuote},
		{"params", SymParams},
		{"this", SymThis},
		{"let", SymLet},
		{"=>", SymLambda},
	}
}

// Provider is a bijective, append-only dictionary between literal strings and
// Symbols. Once a literal is interned it maps to exactly one Symbol forever,
// and that Symbol maps back to exactly one literal; there is no removal or
// rebinding. A single Provider is shared by the parser, the evaluator, and
// every Environment in an interpreter instance.
//
// Provider is not safe for concurrent use.
type Provider struct {
	byName map[string]*Symbol
	names  map[*Symbol]string
}

// NewProvider creates a Provider pre-seeded with the given entries, usually
// CoreSymbols(). Seeding is strict: the i-th seeded symbol must have index
// -i at the moment of insertion, i.e. the seed list must be the exact builtin
// prefix of the table. A violation is a programmer error and panics.
func NewProvider(seed []SeedEntry) *Provider {
	p := &Provider{
		byName: make(map[string]*Symbol),
		names:  make(map[*Symbol]string),
	}

	for _, ent := range seed {
		if ent.Symbol.Index != -int32(len(p.byName)) {
			panic(fmt.Sprintf("lisp: seed symbol %v for literal %q out of order; want index %d", ent.Symbol, ent.Literal, -len(p.byName)))
		}
		p.byName[ent.Literal] = ent.Symbol
		p.names[ent.Symbol] = ent.Literal
	}

	return p
}

// Contains returns whether the literal has been interned.
func (p *Provider) Contains(literal string) bool {
	_, ok := p.byName[literal]
	return ok
}

// Intern returns the Symbol for the given literal, allocating a new one if
// the literal has not been seen before. New builtin symbols get index -count
// and new user symbols get index +count, where count is the size of the table
// at allocation time. Interning an existing literal returns the same Symbol
// it always has, regardless of asBuiltin.
func (p *Provider) Intern(literal string, asBuiltin bool) *Symbol {
	if sym, ok := p.byName[literal]; ok {
		return sym
	}

	idx := int32(len(p.byName))
	if asBuiltin {
		idx = -idx
	}
	sym := &Symbol{Index: idx}

	p.byName[literal] = sym
	p.names[sym] = literal
	return sym
}

// NameOf returns the literal the symbol was interned from. Asking for a
// symbol this Provider did not mint is an invariant violation and panics.
func (p *Provider) NameOf(sym *Symbol) string {
	name, ok := p.names[sym]
	if !ok {
		panic(fmt.Sprintf("lisp: %v was not interned by this provider", sym))
	}
	return name
}

// Len returns the number of interned literals.
func (p *Provider) Len() int {
	return len(p.byName)
}
