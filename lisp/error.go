package lisp

import "fmt"

// file error.go contains errors produced while parsing and evaluating
// S-expressions.

// SyntaxError is returned for malformed input: an unrecognized character, an
// unexpected end of input, or trailing input after a complete top-level
// expression. It carries the character offset the problem was found at.
type SyntaxError struct {
	// offset into the input, 0-indexed.
	offset int

	// the offending character, if one applies. 0 for EOF-style errors.
	char rune

	message string
}

func (se *SyntaxError) Error() string {
	if se.char != 0 {
		return fmt.Sprintf("syntax error: at offset %d: %s: %q", se.offset, se.message, se.char)
	}
	return fmt.Sprintf("syntax error: at offset %d: %s", se.offset, se.message)
}

// Offset returns the character offset the error occured at. Offsets are
// 0-indexed.
func (se *SyntaxError) Offset() int {
	return se.offset
}

// Char returns the offending character, or 0 if the error was not caused by
// a particular character (such as for unexpected end of input).
func (se *SyntaxError) Char() rune {
	return se.char
}

// AtEOF returns whether the error is an unexpected-end-of-input error, as
// opposed to one caused by a particular character or token. Callers reading
// interactive input can use this to tell "keep typing" apart from "start
// over".
func (se *SyntaxError) AtEOF() bool {
	return se.char == 0 && se.message == msgUnexpectedEOF
}

const msgUnexpectedEOF = "unexpected end of input"

// EvalError is a hard evaluation failure raised by a builtin (or by the
// evaluator itself in strict mode). Most evaluation problems are soft and
// propagate as values per the core's semantics; EvalError is for the cases a
// derived interpreter decides must not produce a value at all.
type EvalError struct {
	msg string
}

func (ee EvalError) Error() string {
	return ee.msg
}

// Raise panics with an EvalError built from the given format string. The
// panic is converted back to an error return by Evaluate, so builtins can
// abort an evaluation without threading error returns through every closure.
func Raise(format string, a ...interface{}) {
	panic(EvalError{msg: fmt.Sprintf(format, a...)})
}
