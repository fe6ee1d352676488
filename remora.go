// Package remora contains a CLI-driven session for reading rem expressions
// and evaluating them continuously until the user quits.
package remora

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/remora/internal/input"
	"github.com/dekarrin/remora/internal/profile"
	"github.com/dekarrin/remora/lisp"
	"github.com/dekarrin/remora/rem"
	"github.com/dekarrin/rosed"
)

// Session contains the things needed to run an interactive interpreter from
// a shell attached to an input stream and an output stream.
type Session struct {
	interp  *rem.Interpreter
	prof    profile.Profile
	in      input.LineReader
	out     *bufio.Writer
	running bool

	useReadline bool
}

// New creates a new session ready to operate on the given input and output
// streams. If profilePath is non-empty, the REMP profile at that path
// configures the session; otherwise defaults apply. Prelude files listed in
// the profile are evaluated immediately.
//
// If nil is given for the input stream, stdin is used. If nil is given for
// the output stream, stdout is used.
func New(inputStream io.Reader, outputStream io.Writer, profilePath string, forceDirectInput bool) (*Session, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	prof := profile.Default()
	if profilePath != "" {
		var err error
		prof, err = profile.LoadFile(profilePath)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}

	s := &Session{
		interp: &rem.Interpreter{
			Output:   outputStream,
			Strict:   prof.Strict,
			Hardened: prof.Hardened,
		},
		prof: prof,
		out:  bufio.NewWriter(outputStream),
	}

	s.useReadline = !forceDirectInput && inputStream == os.Stdin && outputStream == os.Stdout

	if s.useReadline {
		var err error
		s.in, err = input.NewInteractiveReader(prof.Prompt)
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		s.in = input.NewDirectReader(inputStream)
	}

	for _, pre := range prof.Preludes {
		if err := s.evalPrelude(pre); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Interpreter returns the session's interpreter, for callers that want to
// drive evaluation directly.
func (s *Session) Interpreter() *rem.Interpreter {
	return s.interp
}

// Close closes all resources associated with the Session, including any
// readline-related resources created for interactive mode.
func (s *Session) Close() error {
	if s.running {
		return fmt.Errorf("cannot close a running session")
	}

	err := s.in.Close()
	if err != nil {
		return fmt.Errorf("close line reader: %w", err)
	}

	return nil
}

// RunUntilQuit begins reading expressions from the streams and evaluating
// them until input runs out or the :quit directive is received. Any
// startExprs are evaluated first, before the first line is read.
func (s *Session) RunUntilQuit(startExprs []string) error {
	introMsg := "Remora rem interpreter\n"
	introMsg += "Type :help for help, :quit to leave.\n"

	if err := s.write(introMsg); err != nil {
		return err
	}

	for _, expr := range startExprs {
		if err := s.evalAndShow(expr); err != nil {
			return err
		}
	}

	s.running = true
	// so we dont have to remember to do this on every returned error
	// condition
	defer func() {
		s.running = false
	}()

	var buffer string
	for s.running {
		line, err := s.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("get input line: %w", err)
		}

		if buffer == "" && strings.HasPrefix(line, ":") {
			s.runDirective(line)
			continue
		}

		if buffer != "" {
			buffer += "\n"
		}
		buffer += line

		if s.feed(buffer) {
			buffer = ""
			s.setPrompt(s.prof.Prompt)
		} else {
			s.setPrompt(s.prof.ContinuePrompt)
		}
	}

	return s.write("Goodbye\n")
}

// feed evaluates the buffered source. It returns false if the source is
// incomplete and the session should keep reading lines into the same buffer.
func (s *Session) feed(src string) bool {
	v, err := s.interp.Eval(src)
	if err != nil {
		var synErr *lisp.SyntaxError
		if errors.As(err, &synErr) && synErr.AtEOF() {
			return false
		}
		s.showError(err)
		return true
	}

	s.showValue(v)
	return true
}

func (s *Session) evalAndShow(expr string) error {
	v, err := s.interp.Eval(expr)
	if err != nil {
		s.showError(err)
		return nil
	}
	return s.write(s.interp.FormatValue(v) + "\n")
}

func (s *Session) evalPrelude(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("prelude: %w", err)
	}
	defer f.Close()

	oldFile := s.interp.File
	s.interp.File = path
	defer func() {
		s.interp.File = oldFile
	}()

	if _, err := s.interp.EvalReader(f); err != nil {
		return fmt.Errorf("prelude: %w", err)
	}
	return nil
}

func (s *Session) runDirective(line string) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case ":quit", ":q":
		s.running = false
	case ":reset":
		s.interp.Init()
		s.writeBestEffort("Session reset\n")
	case ":help", ":h":
		s.writeBestEffort(s.helpText())
	default:
		s.writeBestEffort("Unknown directive; type :help for help\n")
	}
}

func (s *Session) helpText() string {
	intro := "Enter a rem expression to evaluate it. An expression may span " +
		"multiple lines; the prompt changes while one is still open."

	help := rosed.Edit(intro).Wrap(s.prof.Width).String()
	help += "\n\nDirectives:\n"
	help += "  :help   - show this help\n"
	help += "  :reset  - discard all definitions and start over\n"
	help += "  :quit   - leave the interpreter\n"

	return help
}

func (s *Session) showValue(v any) {
	s.writeBestEffort(s.interp.FormatValue(v) + "\n")
}

func (s *Session) showError(err error) {
	msg := rosed.Edit("error: " + err.Error()).Wrap(s.prof.Width).String()
	s.writeBestEffort(msg + "\n")
}

func (s *Session) setPrompt(p string) {
	if ilr, ok := s.in.(*input.InteractiveLineReader); ok {
		ilr.SetPrompt(p)
	}
}

func (s *Session) write(text string) error {
	if _, err := s.out.WriteString(text); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}
	return nil
}

// writeBestEffort is write for cases where an output problem should not end
// the session.
func (s *Session) writeBestEffort(text string) {
	_ = s.write(text)
}
