package rem

import (
	"strconv"

	"github.com/dekarrin/remora/lisp"
)

const (
	// if newline is put in any of these it will break comment skipping, so
	// don't do that

	literalStrGroupOpen  = "("
	literalStrGroupClose = ")"
	literalStrQuote      = "`"
	literalStrString     = `"`
	literalStrComment    = ";"
)

// dispatchLiterals are the operator words the tokenizer interns as dispatch
// builtins: their symbols get indices below the builtin threshold, so the
// evaluator hands them the whole list and they can be written infix as well
// as prefix (and, for the control ones, evaluate their operands lazily).
var dispatchLiterals = map[string]bool{
	"+":   true,
	"-":   true,
	"*":   true,
	"/":   true,
	"=":   true,
	"!=":  true,
	"<":   true,
	"<=":  true,
	">":   true,
	">=":  true,
	"and": true,
	"or":  true,
	"if":  true,
	"def": true,
}

// Tokenize is the rem dialect's lexer, plugged into the core parser as its
// Tokenizer seam. It recognizes parens, backtick quoting, integer literals,
// double-quoted strings with backslash escapes, and identifiers; whitespace
// and ;-comments are skipped silently. Identifiers intern through the
// environment's shared Provider.
func Tokenize(env *lisp.Environment, input string, offset *int) (any, int) {
	skipIgnored(input, offset)
	if *offset >= len(input) {
		return nil, 0
	}

	switch input[*offset] {
	case literalStrGroupOpen[0]:
		return lisp.SymOpen, 1
	case literalStrGroupClose[0]:
		return lisp.SymClose, 1
	case literalStrQuote[0]:
		return lisp.SymQuote, 1
	case literalStrString[0]:
		return lexString(input, *offset)
	}

	if startsNumber(input, *offset) {
		return lexNumber(input, *offset)
	}

	if isIdentChar(input[*offset]) {
		end := *offset + 1
		for end < len(input) && (isIdentChar(input[end]) || isDigit(input[end])) {
			end++
		}
		lexeme := input[*offset:end]
		return env.Symbols().Intern(lexeme, dispatchLiterals[lexeme]), end - *offset
	}

	return lisp.SymUnknown, 0
}

// skipIgnored advances offset past whitespace and line comments.
func skipIgnored(input string, offset *int) {
	for *offset < len(input) {
		ch := input[*offset]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			*offset++
			continue
		}
		if ch == literalStrComment[0] {
			for *offset < len(input) && input[*offset] != '\n' {
				*offset++
			}
			continue
		}
		break
	}
}

// lexString scans a double-quoted string with backslash escapes starting at
// the opening quote. An unterminated string reports the opening quote as the
// unexpected character.
func lexString(input string, offset int) (any, int) {
	var sb []byte
	i := offset + 1
	for i < len(input) {
		ch := input[i]
		if ch == '\\' && i+1 < len(input) {
			switch input[i+1] {
			case 'n':
				sb = append(sb, '\n')
			case 't':
				sb = append(sb, '\t')
			default:
				sb = append(sb, input[i+1])
			}
			i += 2
			continue
		}
		if ch == literalStrString[0] {
			return string(sb), i + 1 - offset
		}
		sb = append(sb, ch)
		i++
	}
	return lisp.SymUnknown, 0
}

func lexNumber(input string, offset int) (any, int) {
	end := offset
	if input[end] == '-' {
		end++
	}
	for end < len(input) && isDigit(input[end]) {
		end++
	}

	n, err := strconv.Atoi(input[offset:end])
	if err != nil {
		// should never happen; startsNumber guarantees a digit follows
		return lisp.SymUnknown, 0
	}
	return n, end - offset
}

func startsNumber(input string, offset int) bool {
	if isDigit(input[offset]) {
		return true
	}
	return input[offset] == '-' && offset+1 < len(input) && isDigit(input[offset+1])
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentChar(ch byte) bool {
	if ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' {
		return true
	}
	switch ch {
	case '+', '-', '*', '/', '<', '>', '=', '!', '?':
		return true
	}
	return false
}
