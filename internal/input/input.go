// Package input contains line readers used to get rem source input from a
// CLI or other sources of input.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader is a source of input lines for an interactive session. Close
// must be called before disposal to release any resources the reader holds.
type LineReader interface {
	// ReadLine reads the next line of input, blocking until one is
	// available. At end of input it returns io.EOF.
	ReadLine() (string, error)

	// AllowBlank sets whether blank lines are returned as-is. By default
	// they are skipped.
	AllowBlank(allow bool)

	Close() error
}

// DirectLineReader implements LineReader and reads lines from any generic
// input stream directly. It can be used with any io.Reader but does not
// sanitize the input of control and escape sequences.
//
// DirectLineReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectLineReader struct {
	r             *bufio.Reader
	blanksAllowed bool
}

// InteractiveLineReader implements LineReader and reads lines from stdin
// using a go implementation of the GNU Readline library. This keeps input
// clear of typing and editing escape sequences and enables line history.
// It should in general only be used when directly connected to a TTY.
//
// InteractiveLineReader should not be used directly; instead, create one
// with [NewInteractiveReader].
type InteractiveLineReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader creates a DirectLineReader with a buffered reader on the
// provided stream.
func NewDirectReader(r io.Reader) *DirectLineReader {
	return &DirectLineReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates an InteractiveLineReader and initializes
// readline with the given prompt.
func NewInteractiveReader(prompt string) (*InteractiveLineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveLineReader{
		rl:     rl,
		prompt: prompt,
	}, nil
}

// Close cleans up resources associated with the DirectLineReader.
func (dlr *DirectLineReader) Close() error {
	// this function is here so DirectLineReader implements LineReader. For
	// now it doesn't do anything as the DirectLineReader does not create
	// resources, but it may in the future and callers should treat it as
	// though it must have Close called on it.

	return nil
}

// Close cleans up readline resources and other resources associated with the
// InteractiveLineReader.
func (ilr *InteractiveLineReader) Close() error {
	return ilr.rl.Close()
}

// ReadLine reads the next line from the stream. If at end of input, the
// returned string will be empty and error will be io.EOF. If any other error
// occurs, the returned string will be empty and error will be that error.
func (dlr *DirectLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dlr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")

		if dlr.blanksAllowed {
			return line, nil
		}
		line = strings.TrimSpace(line)
	}

	return line, nil
}

// ReadLine reads the next line from stdin. If at end of input, the returned
// string will be empty and error will be io.EOF. If any other error occurs,
// the returned string will be empty and error will be that error.
func (ilr *InteractiveLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ilr.rl.Readline()
		if err == readline.ErrInterrupt {
			// treat ctrl-C at the prompt the same as end of input
			return "", io.EOF
		}
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")

		if ilr.blanksAllowed {
			return line, nil
		}
		line = strings.TrimSpace(line)
	}

	return line, nil
}

// AllowBlank sets whether blank lines are returned. By default they are not.
func (dlr *DirectLineReader) AllowBlank(allow bool) {
	dlr.blanksAllowed = allow
}

// AllowBlank sets whether blank lines are returned. By default they are not.
func (ilr *InteractiveLineReader) AllowBlank(allow bool) {
	ilr.blanksAllowed = allow
}

// SetPrompt updates the prompt to the given text. The session uses this to
// switch to a continuation prompt while an expression is incomplete.
func (ilr *InteractiveLineReader) SetPrompt(p string) {
	ilr.prompt = p
	ilr.rl.SetPrompt(p)
}

// GetPrompt gets the current prompt.
func (ilr *InteractiveLineReader) GetPrompt() string {
	return ilr.prompt
}
