// Package lisp is an evaluator core for LISP-family languages. It parses
// S-expressions from arbitrary source text and reduces them under lexical
// scoping with first-class functions.
//
// The package is a substrate, not a language: it owns symbol interning
// (Provider), the chained scopes (Environment), S-expression parsing
// (Parser), and reduction with let/lambda semantics (Interp). A concrete
// interpreter derives from it by supplying the two seams on Interp: Tokenize,
// which turns source text into atom-level tokens, and Install, which adds the
// language's builtins to each evaluation scope. The rem package in this
// repository is such a derivation.
//
// Evaluation has deliberately soft failure semantics: an unbound identifier
// reduces to the Unknown sentinel rather than erroring, and a non-callable
// list head makes the list behave as a do-all-then-return-last sequence
// (unless Strict is set). Parsing, by contrast, is about well-formedness and
// fails hard with *SyntaxError. See the individual types for the details.
//
// Nothing in this package is safe for concurrent use over shared trees or
// environment chains: the evaluator memoizes resolved builtins by rewriting
// list slots in place, and environments cache ancestor bindings on lookup.
package lisp
