package lisp

import "io"

// Tokenizer is the lexing seam a derived interpreter plugs into the parser.
// It reports the token found at *offset in input, along with the number of
// characters the token occupies. The environment carries the ambient root
// scope, and through it the shared Provider, so the tokenizer can intern
// literals as it goes.
//
// A Tokenizer must behave as follows:
//
//   - skippable characters (whitespace, comments) are consumed silently by
//     advancing *offset before the token is matched;
//   - a recognized token is returned with n > 0; the parser advances the
//     offset by n only when it accepts the token;
//   - end of input is reported by returning a nil token;
//   - an unrecognized character is reported by returning SymUnknown with
//     n == 0, leaving *offset at the offending character.
type Tokenizer func(env *Environment, input string, offset *int) (tok any, n int)

// Parser builds S-expression trees from the token stream supplied by a
// Tokenizer. Tokens are themselves S-expression atoms, typically Symbols or
// host literals; the parser only gives structure to the reserved Open,
// Close, and Quote symbols and passes everything else through.
type Parser struct {
	// Tokenize supplies tokens. Must be set before calling Parse.
	Tokenize Tokenizer
}

// Parse consumes exactly one S-expression from input and requires end of
// input after it. It returns the parsed tree, which the caller may evaluate
// any number of times: Evaluate works on a deep copy, never on the artifact
// itself. A malformed input returns a *SyntaxError.
func (p *Parser) Parse(env *Environment, input string) (any, error) {
	cur := &tokenCursor{tokenize: p.Tokenize, env: env, input: input}

	tok, ok, err := cur.next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &SyntaxError{offset: cur.offset, message: msgUnexpectedEOF}
	}

	expr, err := p.parseExpr(cur, tok)
	if err != nil {
		return nil, err
	}

	_, ok, err = cur.next()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, &SyntaxError{offset: cur.tokenStart, message: "trailing input after expression"}
	}

	return expr, nil
}

// ParseAt consumes a single S-expression starting at the given offset and
// returns it along with the offset of the first character after it, without
// requiring end of input afterward. Callers use it to read a stream of
// top-level expressions out of one input. At end of input it returns io.EOF.
func (p *Parser) ParseAt(env *Environment, input string, offset int) (any, int, error) {
	cur := &tokenCursor{tokenize: p.Tokenize, env: env, input: input, offset: offset}

	tok, ok, err := cur.next()
	if err != nil {
		return nil, cur.offset, err
	}
	if !ok {
		return nil, cur.offset, io.EOF
	}

	expr, err := p.parseExpr(cur, tok)
	if err != nil {
		return nil, cur.offset, err
	}
	return expr, cur.offset, nil
}

// parseExpr builds one expression starting from an already-read token.
func (p *Parser) parseExpr(cur *tokenCursor, tok any) (any, error) {
	switch tok {
	case SymQuote:
		inner, ok, err := cur.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &SyntaxError{offset: cur.offset, message: msgUnexpectedEOF}
		}
		quoted, err := p.parseExpr(cur, inner)
		if err != nil {
			return nil, err
		}
		return &List{Items: []any{SymQuote, quoted}}, nil
	case SymOpen:
		items := []any{}
		for {
			tok, ok, err := cur.next()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &SyntaxError{offset: cur.offset, message: msgUnexpectedEOF}
			}
			if tok == SymClose {
				return &List{Items: items}, nil
			}
			expr, err := p.parseExpr(cur, tok)
			if err != nil {
				return nil, err
			}
			items = append(items, expr)
		}
	case SymClose:
		return nil, &SyntaxError{offset: cur.tokenStart, message: "unexpected end of list"}
	default:
		return tok, nil
	}
}

// tokenCursor drives a Tokenizer over one input string, accepting tokens and
// converting the seam's in-band signals into parse errors.
type tokenCursor struct {
	tokenize Tokenizer
	env      *Environment
	input    string
	offset   int

	// offset the last token started at, after skippables were consumed.
	tokenStart int
}

// next reads and accepts the next token. ok is false at end of input.
func (cur *tokenCursor) next() (tok any, ok bool, err error) {
	tok, n := cur.tokenize(cur.env, cur.input, &cur.offset)
	cur.tokenStart = cur.offset

	if tok == nil {
		return nil, false, nil
	}
	if tok == SymUnknown && n == 0 {
		ch := rune(0)
		for _, r := range cur.input[cur.offset:] {
			ch = r
			break
		}
		return nil, false, &SyntaxError{offset: cur.offset, char: ch, message: "unexpected character"}
	}

	cur.offset += n
	return tok, true, nil
}
