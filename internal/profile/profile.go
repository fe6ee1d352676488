// Package profile has functions for loading interactive session profiles
// from REMP (Remora Profile) files, a TOML-based format that configures the
// interpreter and the REPL.
package profile

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// CurrentFormat is the format identifier all REMP files must declare.
const CurrentFormat = "remora"

// TypeProfile is the type identifier of a profile file.
const TypeProfile = "PROFILE"

// Profile is a fully loaded session profile with all defaults applied.
type Profile struct {
	// Prompt is the text shown before each input line.
	Prompt string

	// ContinuePrompt is the text shown while a multi-line expression is
	// still open.
	ContinuePrompt string

	// Width is the console width output is wrapped to.
	Width int

	// Strict makes applying a non-callable value an error instead of a
	// sequence.
	Strict bool

	// Hardened hides the params/this literals behind unguessable names.
	Hardened bool

	// Preludes are rem source files evaluated, in order, before the first
	// input is read.
	Preludes []string
}

// Default returns the profile used when no file is given.
func Default() Profile {
	return Profile{
		Prompt:         "rem> ",
		ContinuePrompt: "...> ",
		Width:          80,
	}
}

type fileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

type marshaledProfile struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`

	Prompt         string   `toml:"prompt"`
	ContinuePrompt string   `toml:"continuePrompt"`
	Width          int      `toml:"width"`
	Strict         bool     `toml:"strict"`
	Hardened       bool     `toml:"hardened"`
	Preludes       []string `toml:"preludes"`
}

// LoadFile loads a session profile from a REMP file at the given path.
// Fields not present in the file keep their Default values.
func LoadFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}

	p, err := parseProfile(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func parseProfile(data []byte) (Profile, error) {
	var info fileInfo
	if err := toml.Unmarshal(data, &info); err != nil {
		return Profile{}, fmt.Errorf("malformed profile file: %w", err)
	}
	if !strings.EqualFold(info.Format, CurrentFormat) {
		return Profile{}, fmt.Errorf("file does not declare format = %q", CurrentFormat)
	}
	if strings.ToUpper(info.Type) != TypeProfile {
		return Profile{}, fmt.Errorf("file type %q is not %q", info.Type, TypeProfile)
	}

	var m marshaledProfile
	if err := toml.Unmarshal(data, &m); err != nil {
		return Profile{}, fmt.Errorf("malformed profile file: %w", err)
	}

	p := Default()
	if m.Prompt != "" {
		p.Prompt = m.Prompt
	}
	if m.ContinuePrompt != "" {
		p.ContinuePrompt = m.ContinuePrompt
	}
	if m.Width > 0 {
		p.Width = m.Width
	}
	p.Strict = m.Strict
	p.Hardened = m.Hardened
	p.Preludes = m.Preludes

	return p, nil
}
