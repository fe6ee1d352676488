/*
Rem starts an interactive Remora interpreter session or runs a rem script.

With no arguments, it starts a REPL that reads rem expressions from stdin and
prints their values until the :quit directive or end of input. With a FILE
argument it evaluates the file and exits; a FILE ending in ".remc" is treated
as a compiled parse artifact and is evaluated without re-lexing.

Usage:

	rem [flags] [FILE]

The flags are:

	-v, --version
		Give the current version of Remora and then exit.

	-p, --profile FILE
		Use the provided REMP profile file to configure the session. Defaults
		to built-in settings.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input even if launched in a tty
		with stdin and stdout.

	-c, --command EXPRESSIONS
		Immediately evaluate the given expression(s) at start and leave the
		interpreter open. Can be multiple expressions separated by the ";"
		character.

	--compile OUT
		Do not evaluate FILE; instead parse it and write the binary parse
		artifact to OUT. The artifact can later be run by passing it as FILE.
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dekarrin/remora"
	"github.com/dekarrin/remora/internal/profile"
	"github.com/dekarrin/remora/internal/version"
	"github.com/dekarrin/remora/lisp"
	"github.com/dekarrin/remora/rem"
	"github.com/dekarrin/rezi"
	"github.com/spf13/pflag"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitEvalError indicates an unsuccessful program execution due to a
	// problem during evaluation.
	ExitEvalError

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue initializing the session.
	ExitInitError
)

// artifactMagic marks a file as a compiled rem parse artifact.
var artifactMagic = []byte("REMC\x01")

var (
	returnCode   int     = ExitSuccess
	flagVersion  *bool   = pflag.BoolP("version", "v", false, "Gives the version info")
	profileFile  *string = pflag.StringP("profile", "p", "", "The REMP profile file that configures the session")
	forceDirect  *bool   = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	startCommand *string = pflag.StringP("command", "c", "", "Evaluate the given expressions immediately at start and leave the interpreter open")
	compileOut   *string = pflag.String("compile", "", "Parse FILE and write the binary parse artifact to the given path instead of evaluating")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	args := pflag.Args()
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		returnCode = ExitInitError
		return
	}

	if *compileOut != "" {
		if len(args) != 1 {
			fmt.Fprintf(os.Stderr, "--compile requires a FILE to parse\nDo -h for help.\n")
			returnCode = ExitInitError
			return
		}
		if err := compileFile(args[0], *compileOut); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitEvalError
		}
		return
	}

	if len(args) == 1 {
		if err := runFile(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitEvalError
		}
		return
	}

	var startExprs []string
	if *startCommand != "" {
		startExprs = strings.Split(*startCommand, ";")
	}

	sess, initErr := remora.New(os.Stdin, os.Stdout, *profileFile, *forceDirect)
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", initErr.Error())
		returnCode = ExitInitError
		return
	}
	defer sess.Close()

	err := sess.RunUntilQuit(startExprs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitEvalError
		return
	}
}

// scriptInterp builds the interpreter used for non-interactive runs,
// applying the profile if one was given.
func scriptInterp(file string) (*rem.Interpreter, error) {
	prof := profile.Default()
	if *profileFile != "" {
		var err error
		prof, err = profile.LoadFile(*profileFile)
		if err != nil {
			return nil, err
		}
	}

	interp := &rem.Interpreter{
		Output:   os.Stdout,
		Strict:   prof.Strict,
		Hardened: prof.Hardened,
		File:     file,
	}

	for _, pre := range prof.Preludes {
		f, err := os.Open(pre)
		if err != nil {
			return nil, fmt.Errorf("prelude: %w", err)
		}
		interp.File = pre
		_, err = interp.EvalReader(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("prelude: %w", err)
		}
	}
	interp.File = file

	return interp, nil
}

func runFile(path string) error {
	interp, err := scriptInterp(path)
	if err != nil {
		return err
	}

	if strings.HasSuffix(path, ".remc") {
		trees, err := loadArtifact(interp, path)
		if err != nil {
			return err
		}
		for _, tree := range trees {
			if _, err := interp.EvalTree(tree); err != nil {
				return err
			}
		}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = interp.EvalReader(f)
	return err
}

func compileFile(srcPath, outPath string) error {
	interp, err := scriptInterp(srcPath)
	if err != nil {
		return err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	trees, err := interp.ParseReader(f)
	if err != nil {
		return err
	}

	data := append([]byte{}, artifactMagic...)
	for _, tree := range trees {
		data = append(data, rezi.EncBinary(lisp.Tree{Root: tree, Symbols: interp.Symbols()})...)
	}

	if err := os.WriteFile(outPath, data, 0664); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func loadArtifact(interp *rem.Interpreter, path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(data) < len(artifactMagic) || string(data[:len(artifactMagic)]) != string(artifactMagic) {
		return nil, fmt.Errorf("%s: not a rem parse artifact", path)
	}
	data = data[len(artifactMagic):]

	var trees []any
	for len(data) > 0 {
		tree := &lisp.Tree{Symbols: interp.Symbols()}
		n, err := rezi.DecBinary(data, tree)
		if err != nil {
			return nil, fmt.Errorf("%s: decode artifact: %w", path, err)
		}
		trees = append(trees, tree.Root)
		data = data[n:]
	}

	return trees, nil
}
